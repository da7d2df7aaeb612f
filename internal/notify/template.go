package notify

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
)

// DefaultTemplate is the alert body used when the config sets none.
const DefaultTemplate = `Portal check failed on {{ target.env | upper }} ({{ target.name }})
Reason: {{ alert.reason }}
URL: {{ target.url }}
Time: {{ alert.time }}`

// TemplateData holds all data available to alert templates.
type TemplateData struct {
	Target map[string]string
	Alert  map[string]string
}

// BuildTemplateData constructs template data from an alert event.
func BuildTemplateData(ev AlertEvent) TemplateData {
	return TemplateData{
		Target: map[string]string{
			"name":   ev.Target.Name,
			"env":    ev.Target.Env,
			"url":    ev.Target.URL,
			"marker": ev.Target.ExpectedMarker,
			"title":  ev.Target.AlertTitle,
		},
		Alert: map[string]string{
			"reason": ev.Reason,
			"time":   ev.OccurredAt.Format(time.RFC3339),
		},
	}
}

// Render executes a Go text/template string with Sprig functions and the
// accessor functions target and alert, so {{target.env}} works.
func Render(tmplStr string, data TemplateData) (string, error) {
	funcMap := sprig.TxtFuncMap()
	funcMap["target"] = func() map[string]string { return data.Target }
	funcMap["alert"] = func() map[string]string { return data.Alert }

	t, err := template.New("alert").Funcs(funcMap).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}
