package api

import (
	"io"
	"net/http"

	"github.com/nerrad567/ratpad-bridge/internal/protocol"
)

// commandEntry is one row of the command listing.
type commandEntry struct {
	Namespace   protocol.Namespace `json:"namespace"`
	Domain      string             `json:"domain"`
	Action      string             `json:"action"`
	HasResponse bool               `json:"has_response"`
}

// handleListCommands returns the command registry.
func (s *Server) handleListCommands(w http.ResponseWriter, _ *http.Request) {
	infos := protocol.Commands()
	entries := make([]commandEntry, len(infos))
	for i, info := range infos {
		entries[i] = commandEntry{
			Namespace:   info.Namespace,
			Domain:      info.Namespace.Domain(),
			Action:      info.Namespace.Action(),
			HasResponse: info.HasResponse,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"commands": entries})
}

// handleCommand executes a raw wire command such as
// {"type": "pad.set_mode", "mode": "edit"} and returns the executor's
// result. Connection commands sent here bypass the store's connect
// tracking; the store still follows the pad's connect and disconnect
// events.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "reading body: "+err.Error())
		return
	}

	req, err := protocol.DecodeCommand(body)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	res := s.exec.Dispatch(r.Context(), req)
	if !res.OK {
		status, _ := statusFor(res.Err())
		writeJSON(w, status, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
