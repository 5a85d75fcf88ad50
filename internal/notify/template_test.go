package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/contact-intake/internal/contact"
)

func notifiedSubmission() *contact.Submission {
	return &contact.Submission{
		ID:                 "sub-1",
		Name:               "Ada Lovelace",
		Email:              "ada@example.com",
		Message:            "The engine weaves algebraic patterns.",
		OriginatingAddress: "203.0.113.54",
		CreatedAt:          time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
}

func TestTemplatesRenderSubmission(t *testing.T) {
	set, err := newTemplateSet()
	require.NoError(t, err)

	out, err := set.render(notifiedSubmission())
	require.NoError(t, err)

	assert.Equal(t, "Contact form: Ada Lovelace", out.subject)
	assert.Contains(t, out.text, "Ada Lovelace <ada@example.com>")
	assert.Contains(t, out.text, "Reference: sub-1")
	assert.Contains(t, out.text, "Origin:    203.0.113.54")
	assert.Contains(t, out.text, "2026-03-14 09:26:53 UTC")
	assert.Contains(t, out.text, "The engine weaves algebraic patterns.")
	assert.Contains(t, out.html, "ada@example.com")
}

func TestTemplatesEscapeUserContent(t *testing.T) {
	set, err := newTemplateSet()
	require.NoError(t, err)

	sub := notifiedSubmission()
	sub.Name = "O'Brien & Sons"
	sub.Message = "<script>alert(1)</script>"

	out, err := set.render(sub)
	require.NoError(t, err)

	assert.NotContains(t, out.html, "<script>")
	assert.Contains(t, out.html, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.Contains(t, out.html, "O&#39;Brien &amp; Sons")

	// The plain-text body carries the message verbatim.
	assert.Contains(t, out.text, "<script>alert(1)</script>")
}

func TestTemplatesFallbacks(t *testing.T) {
	set, err := newTemplateSet()
	require.NoError(t, err)

	sub := notifiedSubmission()
	sub.ID = ""
	sub.OriginatingAddress = ""

	out, err := set.render(sub)
	require.NoError(t, err)

	assert.Contains(t, out.text, "Reference: not stored")
	assert.Contains(t, out.text, "Origin:    unknown")
	assert.Contains(t, out.html, "not stored")
}
