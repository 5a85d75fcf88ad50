package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ignite/contact-intake/internal/contact"
	"github.com/ignite/contact-intake/internal/pkg/httputil"
	"github.com/ignite/contact-intake/internal/storage"
)

// submitResponse is the wire shape for an accepted submission. ID is a
// pointer so an unsaved submission serializes as null rather than "".
type submitResponse struct {
	Success bool    `json:"success"`
	Saved   bool    `json:"saved"`
	ID      *string `json:"id"`
	Mailed  bool    `json:"mailed"`
}

// SubmitContact handles POST /api/contact
func (h *Handlers) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if !httputil.Decode(w, r, &payload) {
		return
	}

	result, err := h.pipeline.Process(r.Context(), payload, clientAddr(r))
	if err != nil {
		switch {
		case errors.Is(err, contact.ErrInvalidInput):
			httputil.BadRequest(w, "invalid input")
		case errors.Is(err, storage.ErrFieldTooLong):
			httputil.BadRequest(w, "field too long")
		default:
			httputil.InternalError(w, err)
		}
		return
	}

	resp := submitResponse{
		Success: true,
		Saved:   result.Stored,
		Mailed:  result.Mailed,
	}
	if result.ID != "" {
		resp.ID = &result.ID
	}

	httputil.OK(w, resp)
}

// ListSubmissions handles GET /api/contact/submissions
func (h *Handlers) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		httputil.ServiceUnavailable(w, "submission listing requires a storage backend")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	subs, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if subs == nil {
		subs = []contact.Submission{}
	}

	httputil.OK(w, map[string]any{
		"submissions": subs,
		"count":       len(subs),
	})
}
