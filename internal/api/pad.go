package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/ratpad-bridge/internal/pad"
	"github.com/nerrad567/ratpad-bridge/internal/protocol"
)

// ConnectRequest is the body of POST /connection.
type ConnectRequest struct {
	Port string `json:"port"`
	Rate uint32 `json:"rate"`
}

// WriteModesRequest is the body of PUT /modes.
type WriteModesRequest struct {
	Modes []pad.ModeConfig `json:"modes"`
}

// SetColorRequest is the body of PUT /colors/{key}. Navigation keys take
// a color, brightness takes a level.
type SetColorRequest struct {
	Color *pad.Color `json:"color,omitempty"`
	Level *int       `json:"level,omitempty"`
}

// ConfigResponse wraps the configuration returned after a mutation.
type ConfigResponse struct {
	Config *pad.AppConfig `json:"config"`
}

// handleGetState returns the last confirmed state.
func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// handleRefreshState re-queries the pad and returns the new state.
func (s *Server) handleRefreshState(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.UpdateState(r.Context()); err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// handleListPorts returns the serial ports visible to the transport.
func (s *Server) handleListPorts(w http.ResponseWriter, r *http.Request) {
	ports, err := s.store.ListPorts(r.Context())
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ports": ports})
}

// handleConnect starts a connection attempt. The response is 202 with the
// Waiting state; the outcome arrives on the state.changed channel.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := s.store.Connect(r.Context(), req.Port, req.Rate); err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.store.Snapshot())
}

// handleDisconnect closes the serial link.
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Disconnect(r.Context()); err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, s.store.Snapshot())
}

// handleWriteMode stores one mode. The body's key may be omitted; if set
// it must match the path.
func (s *Server) handleWriteMode(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var mode pad.ModeConfig
	if err := json.NewDecoder(r.Body).Decode(&mode); err != nil {
		writeBadRequest(w, "invalid mode: "+err.Error())
		return
	}
	if mode.Key == "" {
		mode.Key = key
	}
	if mode.Key != key {
		writeBadRequest(w, "mode key does not match path")
		return
	}

	cfg, err := s.store.WriteMode(r.Context(), mode)
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConfigResponse{Config: cfg})
}

// handleWriteModes stores a batch of modes, validated as a whole first.
func (s *Server) handleWriteModes(w http.ResponseWriter, r *http.Request) {
	var req WriteModesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid modes: "+err.Error())
		return
	}

	cfg, err := s.store.WriteModes(r.Context(), req.Modes)
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConfigResponse{Config: cfg})
}

// ModeColorsResponse lists the color each key slot of a mode is lit with.
// A nil entry is an unlit slot.
type ModeColorsResponse struct {
	Mode   string       `json:"mode"`
	Colors []*pad.Color `json:"colors"`
}

// handleModeColors resolves the key colors of a stored mode, falling back
// to the mode color for keys without their own.
func (s *Server) handleModeColors(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var mode pad.ModeConfig
	found := false
	if cfg := s.store.Snapshot().Config; cfg != nil {
		mode, found = cfg.Mode(key)
	}
	if !found {
		writeBridgeError(w, fmt.Errorf("%w: %q", pad.ErrModeNotFound, key))
		return
	}

	colors := make([]*pad.Color, pad.KeySlots)
	for i := range colors {
		colors[i] = mode.EffectiveColor(i)
	}
	writeJSON(w, http.StatusOK, ModeColorsResponse{Mode: key, Colors: colors})
}

// handleDeleteMode removes one mode.
func (s *Server) handleDeleteMode(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.DeleteMode(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConfigResponse{Config: cfg})
}

// handleClearModes removes every mode.
func (s *Server) handleClearModes(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.ClearModes(r.Context())
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConfigResponse{Config: cfg})
}

// handleActivateMode switches the pad to a mode.
func (s *Server) handleActivateMode(w http.ResponseWriter, r *http.Request) {
	if err := s.store.SetMode(r.Context(), chi.URLParam(r, "key")); err != nil {
		writeBridgeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHome returns the pad to its home screen.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if err := s.store.SetHome(r.Context()); err != nil {
		writeBridgeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetColor assigns a navigation color or the brightness.
func (s *Server) handleSetColor(w http.ResponseWriter, r *http.Request) {
	key := pad.ColorKey(chi.URLParam(r, "key"))

	var body SetColorRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	var req protocol.PadSetColor
	switch {
	case key == pad.ColorKeyBrightness:
		if body.Level == nil {
			writeBadRequest(w, "brightness requires level")
			return
		}
		req = protocol.SetBrightness(*body.Level)
	default:
		if body.Color == nil {
			writeBadRequest(w, "color is required")
			return
		}
		req = protocol.SetNavigationColor(key, *body.Color)
	}

	cfg, err := s.store.SetColor(r.Context(), req)
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConfigResponse{Config: cfg})
}
