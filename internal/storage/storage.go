// Package storage persists contact submissions. Backends share one
// narrow Store surface so the intake pipeline never knows which one is
// configured, or whether any is.
package storage

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/ignite/contact-intake/internal/contact"
)

// Schema caps for a stored submission, in characters. Writes exceeding
// them are rejected whole; nothing is ever truncated.
const (
	MaxNameLen    = 200
	MaxEmailLen   = 320
	MaxMessageLen = 5000
)

// ErrFieldTooLong marks writes rejected by the schema caps. Handlers
// report it as a client error; every other create failure is a server
// error.
var ErrFieldTooLong = errors.New("field exceeds schema limit")

// Store is the persistence surface for submissions. Create assigns and
// returns the record identifier. Recent returns newest-first.
type Store interface {
	Create(ctx context.Context, sub *contact.Submission) (string, error)
	Recent(ctx context.Context, limit int) ([]contact.Submission, error)
	Available(ctx context.Context) bool
	Name() string
}

// checkLimits guards every backend write with the shared schema caps.
func checkLimits(sub *contact.Submission) error {
	if n := utf8.RuneCountInString(sub.Name); n > MaxNameLen {
		return fmt.Errorf("%w: name is %d chars (max %d)", ErrFieldTooLong, n, MaxNameLen)
	}
	if n := utf8.RuneCountInString(sub.Email); n > MaxEmailLen {
		return fmt.Errorf("%w: email is %d chars (max %d)", ErrFieldTooLong, n, MaxEmailLen)
	}
	if n := utf8.RuneCountInString(sub.Message); n > MaxMessageLen {
		return fmt.Errorf("%w: message is %d chars (max %d)", ErrFieldTooLong, n, MaxMessageLen)
	}
	return nil
}
