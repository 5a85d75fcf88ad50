package contact

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Submission is a contact-form entry. Instances are immutable once
// created: the system persists them at most once and never updates or
// deletes them.
type Submission struct {
	ID                 string    `json:"id,omitempty"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Message            string    `json:"message"`
	OriginatingAddress string    `json:"originatingAddress,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// ErrInvalidInput marks submissions that failed validation. Wrapped
// errors carry the field detail for logs; clients only ever see the
// bare message.
var ErrInvalidInput = errors.New("invalid input")

// emailShape is the accepted address form: non-whitespace local part,
// "@", non-whitespace domain with at least one dot. Deliberately looser
// than RFC 5322; the mailbox is never dereferenced, only echoed back to
// staff in the notification.
var emailShape = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// FromPayload builds a Submission from an untyped request payload.
// Every field is coerced to a string and trimmed; missing fields become
// empty strings and the email is lower-cased. No validation happens
// here.
func FromPayload(payload map[string]any) *Submission {
	return &Submission{
		Name:    strings.TrimSpace(coerce(payload["name"])),
		Email:   strings.ToLower(strings.TrimSpace(coerce(payload["email"]))),
		Message: strings.TrimSpace(coerce(payload["message"])),
	}
}

// Validate checks the required fields. It reads only the receiver, so
// the same submission always yields the same verdict.
func (s *Submission) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if s.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if !emailShape.MatchString(s.Email) {
		return fmt.Errorf("%w: email address is malformed", ErrInvalidInput)
	}
	if s.Message == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	return nil
}

// coerce renders a decoded JSON value as a string. Strings pass
// through; numbers and booleans take their literal form; null and
// missing values become "".
func coerce(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
