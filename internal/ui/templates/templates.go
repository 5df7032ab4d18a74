// Package templates renders the console pages and the fragments patched into
// them over SSE. Every fragment's root element carries the id it is patched
// by, so the handlers never pass a selector.
package templates

import (
	"context"
	"html/template"
	"strings"
	"time"

	"github.com/a-h/templ"

	"fraud-console/internal/models"
	"fraud-console/internal/normalize"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

var funcs = template.FuncMap{
	"percent":        normalize.Percent,
	"latency":        normalize.Latency,
	"latencyPrecise": normalize.LatencyPrecise,
	"count":          normalize.Count,
	"amount":         normalize.Amount,
	"riskFactors":    normalize.RiskFactors,
	"score":          func(v float64) string { return normalize.Percent(v, 1) },
	"clock": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.Local().Format("15:04:05")
	},
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return "N/A"
		}
		return t.Local().Format("2006-01-02 15:04:05")
	},
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"label": func(s string) string { return strings.ReplaceAll(s, "_", " ") },
}

var views = template.Must(template.New("views").Funcs(funcs).Parse(fragmentsHTML + pagesHTML))

func view(name string, data any) templ.Component {
	t := views.Lookup(name)
	if t == nil {
		panic("templates: unknown view " + name)
	}
	return templ.FromGoHTML(t, data)
}

// Render renders c into a string for an SSE patch.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Toast renders the notification area. A nil toast clears it.
func Toast(t *models.Toast) templ.Component {
	return view("toast", t)
}
