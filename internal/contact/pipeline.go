// Package contact implements the contact-form intake pipeline: honeypot
// check, normalization, validation, optional persistence, best-effort
// notification.
package contact

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ignite/contact-intake/internal/pkg/logger"
)

// honeypotField is invisible to humans on the form; bots fill it.
const honeypotField = "company"

// Store persists accepted submissions and assigns their identifiers.
type Store interface {
	Create(ctx context.Context, sub *Submission) (string, error)
}

// Notifier delivers a summary of a stored submission to staff.
type Notifier interface {
	Notify(ctx context.Context, sub *Submission) error
}

// Pipeline runs submissions through intake. Both collaborators are
// optional: a nil Store skips persistence, a nil Notifier skips
// notification, and the Result reports what actually happened.
type Pipeline struct {
	store    Store
	notifier Notifier
}

// Result is the composite outcome of one submission.
type Result struct {
	Accepted bool
	Stored   bool
	Mailed   bool
	ID       string
}

// NewPipeline builds a Pipeline around the configured collaborators.
// Pass nil for any capability that is not configured.
func NewPipeline(store Store, notifier Notifier) *Pipeline {
	return &Pipeline{store: store, notifier: notifier}
}

// Process runs one raw payload through the intake sequence. clientAddr
// is the request's originating address as derived by the transport
// layer.
//
// The error is non-nil in exactly two cases: validation failure
// (wrapping ErrInvalidInput) and a failed write on a configured store.
// A store failure aborts the pipeline before notification; a notifier
// failure is logged and reported as Mailed=false, never as an error.
func (p *Pipeline) Process(ctx context.Context, payload map[string]any, clientAddr string) (Result, error) {
	// Honeypot first: bots must learn nothing about validation rules.
	if coerce(payload[honeypotField]) != "" {
		log.Printf("[Contact] honeypot tripped, discarding submission from %s", logger.RedactAddr(clientAddr))
		return Result{Accepted: true}, nil
	}

	sub := FromPayload(payload)
	if err := sub.Validate(); err != nil {
		return Result{}, err
	}

	sub.OriginatingAddress = clientAddr
	sub.CreatedAt = time.Now().UTC()

	res := Result{Accepted: true}

	if p.store != nil {
		id, err := p.store.Create(ctx, sub)
		if err != nil {
			return Result{}, fmt.Errorf("store submission: %w", err)
		}
		sub.ID = id
		res.Stored = true
		res.ID = id
		log.Printf("[Contact] stored submission %s from %s", id, logger.RedactEmail(sub.Email))
	}

	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, sub); err != nil {
			log.Printf("[Contact] WARNING: notification failed for submission %s: %v", idOrDash(sub.ID), err)
		} else {
			res.Mailed = true
		}
	}

	return res, nil
}

func idOrDash(id string) string {
	if id == "" {
		return "-"
	}
	return id
}
