package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/ratpad-bridge/internal/audit"
	"github.com/nerrad567/ratpad-bridge/internal/protocol"
)

// handleListJournal returns executed commands, newest first.
//
// Query parameters:
//   - namespace: exact namespace (pad.set_mode)
//   - domain: serial, config or pad
//   - failed: "true" for failures only
//   - since: RFC 3339 timestamp
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "command journal not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Namespace: protocol.Namespace(q.Get("namespace")),
		Domain:    q.Get("domain"),
		Failed:    q.Get("failed") == "true",
	}

	switch filter.Domain {
	case "", protocol.DomainSerial, protocol.DomainConfig, protocol.DomainPad:
	default:
		writeBadRequest(w, "domain must be serial, config or pad")
		return
	}
	if filter.Namespace != "" {
		if err := filter.Namespace.Validate(); err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		if filter.Domain != "" && filter.Namespace.Domain() != filter.Domain {
			writeBadRequest(w, "namespace is outside the requested domain")
			return
		}
	}

	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = t
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.journal.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list command journal", "error", err)
		writeInternalError(w, "failed to list command journal")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
