package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/contact-intake/internal/pkg/httputil"
	"github.com/ignite/contact-intake/internal/storage"
)

// HealthChecker reports the service's capability map. Dependencies may
// be nil: an absent capability reports false, and the endpoint answers
// 200 regardless, so load balancers only measure process liveness.
type HealthChecker struct {
	store     storage.Store
	mailReady bool
}

// NewHealthChecker creates a health checker over the configured
// collaborators. Pass a nil store or a false mailReady for capabilities
// that are not configured.
func NewHealthChecker(store storage.Store, mailReady bool) *HealthChecker {
	return &HealthChecker{store: store, mailReady: mailReady}
}

// healthResponse is the wire shape of GET /health.
type healthResponse struct {
	OK   bool `json:"ok"`
	DB   bool `json:"db"`
	Mail bool `json:"mail"`
}

// HandleHealth handles GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	db := false
	if hc.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		db = hc.store.Available(ctx)
	}

	httputil.OK(w, healthResponse{OK: true, DB: db, Mail: hc.mailReady})
}
