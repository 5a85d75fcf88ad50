package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/ignite/contact-intake/internal/media"
	"github.com/ignite/contact-intake/internal/pkg/httputil"
)

// UploadFile handles POST /api/uploads. The route is a pass-through to
// the configured media host and never touches submissions: the host's
// status, content type, and body are relayed to the caller verbatim.
func (h *Handlers) UploadFile(w http.ResponseWriter, r *http.Request) {
	if h.host == nil {
		httputil.ServiceUnavailable(w, "uploads require a media host configuration")
		return
	}

	// Parse multipart form with a 10 MB limit
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		httputil.BadRequest(w, "failed to parse form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "no file provided: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	result, err := h.host.Upload(r.Context(), header.Filename, data)
	if err != nil {
		if errors.Is(err, media.ErrInvalidUpload) {
			httputil.BadRequest(w, err.Error())
			return
		}
		log.Printf("[Uploads] ERROR: upload via %s failed: %v", h.host.Name(), err)
		httputil.Error(w, http.StatusBadGateway, "upload failed")
		return
	}

	if result.ContentType != "" {
		w.Header().Set("Content-Type", result.ContentType)
	}
	w.WriteHeader(result.Status)
	w.Write(result.Body)
}
