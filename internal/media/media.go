// Package media hosts files uploaded from the contact form. The route
// in front of it is a dumb proxy: hosts produce a complete wire
// response and the handler relays it untouched.
package media

import (
	"context"
	"errors"
)

// MaxUploadMB caps uploads accepted from the form.
const MaxUploadMB = 10

// ErrInvalidUpload marks uploads rejected before any storage work:
// oversized, unsupported type, or undecodable content.
var ErrInvalidUpload = errors.New("invalid upload")

// Result is the wire response a host produced for an upload.
type Result struct {
	Status      int
	ContentType string
	Body        []byte
}

// Host receives uploaded files and answers with a ready-to-relay
// result.
type Host interface {
	Upload(ctx context.Context, filename string, data []byte) (*Result, error)
	Name() string
}
