package api

import (
	"net"
	"net/http"

	"github.com/ignite/contact-intake/internal/contact"
	"github.com/ignite/contact-intake/internal/media"
	"github.com/ignite/contact-intake/internal/storage"
)

// Handlers holds the HTTP handlers and their collaborators. Any
// collaborator may be nil: a nil store disables the listing endpoint, a
// nil media host disables uploads, and the pipeline tolerates missing
// capabilities on its own.
type Handlers struct {
	pipeline *contact.Pipeline
	store    storage.Store
	host     media.Host
	health   *HealthChecker
}

// NewHandlers creates the handler set
func NewHandlers(pipeline *contact.Pipeline, store storage.Store, host media.Host, health *HealthChecker) *Handlers {
	return &Handlers{
		pipeline: pipeline,
		store:    store,
		host:     host,
		health:   health,
	}
}

// clientAddr extracts the request's originating address. The RealIP
// middleware has already folded X-Forwarded-For into RemoteAddr when a
// proxy supplied one, so this only strips the port.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
