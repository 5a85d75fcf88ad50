package notify

import (
	"fmt"
	"html"

	"github.com/osteele/liquid"

	"github.com/ignite/contact-intake/internal/contact"
)

// Notification templates. Liquid keeps the copy editable without
// touching render code, same as the rest of our mail tooling.
const (
	subjectTemplate = `Contact form: {{ name }}`

	textTemplate = `New contact form submission

From:      {{ name }} <{{ email }}>
Received:  {{ received }}
Reference: {{ id | default: "not stored" }}
Origin:    {{ origin | default: "unknown" }}

{{ message }}
`

	htmlTemplate = `<h2>New contact form submission</h2>
<table cellpadding="4">
  <tr><td><strong>From</strong></td><td>{{ name | escape }} &lt;{{ email | escape }}&gt;</td></tr>
  <tr><td><strong>Received</strong></td><td>{{ received }}</td></tr>
  <tr><td><strong>Reference</strong></td><td>{{ id | default: "not stored" }}</td></tr>
  <tr><td><strong>Origin</strong></td><td>{{ origin | default: "unknown" | escape }}</td></tr>
</table>
<p style="white-space: pre-wrap">{{ message | escape }}</p>
`
)

// rendered holds the three outputs for one submission.
type rendered struct {
	subject string
	text    string
	html    string
}

// templateSet compiles the notification templates once at startup.
type templateSet struct {
	subject *liquid.Template
	text    *liquid.Template
	html    *liquid.Template
}

func newTemplateSet() (*templateSet, error) {
	engine := liquid.NewEngine()

	// Missing-value fallback: {{ id | default: "not stored" }}
	engine.RegisterFilter("default", func(value interface{}, fallback string) interface{} {
		if value == nil {
			return fallback
		}
		if s := fmt.Sprintf("%v", value); s == "" || s == "<nil>" {
			return fallback
		}
		return value
	})

	// HTML-escape user content: {{ message | escape }}
	engine.RegisterFilter("escape", func(s string) string {
		return html.EscapeString(s)
	})

	set := &templateSet{}
	var err error
	if set.subject, err = engine.ParseString(subjectTemplate); err != nil {
		return nil, fmt.Errorf("subject template: %w", err)
	}
	if set.text, err = engine.ParseString(textTemplate); err != nil {
		return nil, fmt.Errorf("text template: %w", err)
	}
	if set.html, err = engine.ParseString(htmlTemplate); err != nil {
		return nil, fmt.Errorf("html template: %w", err)
	}
	return set, nil
}

func (t *templateSet) render(sub *contact.Submission) (*rendered, error) {
	binding := map[string]interface{}{
		"name":     sub.Name,
		"email":    sub.Email,
		"message":  sub.Message,
		"id":       sub.ID,
		"origin":   sub.OriginatingAddress,
		"received": sub.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"),
	}

	out := &rendered{}
	var err error
	if out.subject, err = t.subject.RenderString(binding); err != nil {
		return nil, fmt.Errorf("render subject: %w", err)
	}
	if out.text, err = t.text.RenderString(binding); err != nil {
		return nil, fmt.Errorf("render text body: %w", err)
	}
	if out.html, err = t.html.RenderString(binding); err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}
	return out, nil
}
