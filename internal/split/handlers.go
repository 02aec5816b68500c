package split

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/geoklinglaw/payup/internal/ledger"
	"github.com/geoklinglaw/payup/internal/wizard"
)

// writeJSON encodes a response body with CORS headers set.
func writeJSON(w http.ResponseWriter, code int, v any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes a JSON error body in the {error, details?} shape.
func writeError(w http.ResponseWriter, code int, message string, details ...string) {
	body := map[string]string{"error": message}
	if len(details) > 0 && details[0] != "" {
		body["details"] = details[0]
	}
	writeJSON(w, code, body)
}

// readPayload reads and decodes a receipt image payload from the request
// body, writing the appropriate error response on failure.
func readPayload(w http.ResponseWriter, r *http.Request) (Payload, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBase64Len+4096))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Image too large")
		return Payload{}, false
	}
	payload, err := DecodePayload(raw)
	switch {
	case errors.Is(err, ErrPayloadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "Image too large")
		return Payload{}, false
	case err != nil:
		writeError(w, http.StatusBadRequest, "Missing base64Receipt")
		return Payload{}, false
	}
	return payload, true
}

// handleAddContributor appends a contributor to the session.
func (s *Server) handleAddContributor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := s.service.AddContributor(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

// handleRemoveContributor removes a contributor by id.
func (s *Server) handleRemoveContributor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Contributor ID required")
		return
	}
	writeJSON(w, http.StatusOK, s.service.RemoveContributor(id))
}

// handleAttachSnapshot stores the pending receipt image for the capture step.
func (s *Server) handleAttachSnapshot(w http.ResponseWriter, r *http.Request) {
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}
	if err := s.service.AttachSnapshot(payload.Data, payload.MimeType); err != nil {
		slog.Error("Error attaching snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "Error storing snapshot")
		return
	}
	writeJSON(w, http.StatusOK, s.service.State())
}

// handleExtract is the one-shot extraction gateway: it accepts an image
// payload and returns the raw JSON text of the structured receipt.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	payload, ok := readPayload(w, r)
	if !ok {
		return
	}

	text, err := s.service.Extract(r.Context(), payload.Data, payload.MimeType)
	switch {
	case errors.Is(err, ErrNoScanner):
		writeError(w, http.StatusInternalServerError, "Server misconfigured: extraction backend missing")
		return
	case err != nil:
		slog.Error("Extraction failed", "error", err)
		writeError(w, http.StatusBadGateway, "Extraction failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

// handleGetDraft seeds a bill draft from the extracted receipt staging.
func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.DraftFromStaging())
}

// handleStageDraft registers the entry step's save action for a draft.
func (s *Server) handleStageDraft(w http.ResponseWriter, r *http.Request) {
	var draft BillDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.service.StageDraft(draft)
	writeJSON(w, http.StatusOK, s.service.State())
}

// handleAdvance runs the active step's action and moves the wizard forward.
// A blocked guard is not an error: the unchanged state comes back and the
// client explains why. Failures leave the wizard at its current step.
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.Advance(r.Context())
	var vErr *ledger.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, state)
	case errors.Is(err, wizard.ErrBusy):
		writeError(w, http.StatusConflict, "An action is already in flight")
	case errors.Is(err, wizard.ErrNoHandler):
		writeError(w, http.StatusConflict, "Step is not ready, retry after re-entering it")
	case errors.Is(err, ErrNoSnapshot):
		writeError(w, http.StatusBadRequest, "No snapshot attached")
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
	default:
		slog.Error("Advance failed", "step", state.Step.String(), "error", err)
		writeError(w, http.StatusBadGateway, "Extraction failed", err.Error())
	}
}

// handleGoto jumps directly to a step.
func (s *Server) handleGoto(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Step wizard.Step `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, s.service.Goto(req.Step))
}

// handleReset replaces the session with a fresh one.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Reset())
}

// handleState returns the current wizard state.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.State())
}

// handleSummary computes the settlement from the accumulated bills.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Summary()
	if err != nil {
		slog.Error("Error computing summary", "error", err)
		writeError(w, http.StatusInternalServerError, "Error computing settlement", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
