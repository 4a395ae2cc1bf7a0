package render

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-survivalform/pkg/render/template"
)

//go:embed templates/*.tpl
var templateFS embed.FS

// Templates returns the embedded report templates.
func Templates() fs.FS {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return templateFS
	}
	return sub
}

// TemplateRenderer renders a report through one template.
type TemplateRenderer struct {
	name        string
	contentType string
	template    string
	engine      template.Renderer
	sanitize    func(string) string
}

// NewText returns the plain text renderer.
func NewText() (*TemplateRenderer, error) {
	engine, err := template.New("survivalform-text", template.WithFS(Templates()))
	if err != nil {
		return nil, fmt.Errorf("render: text engine: %w", err)
	}
	return &TemplateRenderer{
		name:        FormatText,
		contentType: "text/plain; charset=utf-8",
		template:    "report.txt",
		engine:      engine,
	}, nil
}

// NewHTML returns the HTML fragment renderer. Output is passed through a
// sanitising policy before it is returned.
func NewHTML() (*TemplateRenderer, error) {
	engine, err := template.New("survivalform-html", template.WithFS(Templates()))
	if err != nil {
		return nil, fmt.Errorf("render: html engine: %w", err)
	}
	return &TemplateRenderer{
		name:        FormatHTML,
		contentType: "text/html; charset=utf-8",
		template:    "report.html",
		engine:      engine,
		sanitize:    SanitizeHTML,
	}, nil
}

func (r *TemplateRenderer) Name() string        { return r.name }
func (r *TemplateRenderer) ContentType() string { return r.contentType }

// Render executes the template against the report.
func (r *TemplateRenderer) Render(_ context.Context, report Report) ([]byte, error) {
	out, err := r.engine.RenderTemplate(r.template, report.context())
	if err != nil {
		return nil, fmt.Errorf("render: %s: %w", r.name, err)
	}
	if r.sanitize != nil {
		out = r.sanitize(out)
	}
	return []byte(out), nil
}

// JSONRenderer encodes the report as indented JSON.
type JSONRenderer struct{}

// NewJSON returns the JSON renderer.
func NewJSON() JSONRenderer { return JSONRenderer{} }

func (JSONRenderer) Name() string        { return FormatJSON }
func (JSONRenderer) ContentType() string { return "application/json" }

// Render marshals the report. Prediction values keep the service's number
// literals.
func (JSONRenderer) Render(_ context.Context, report Report) ([]byte, error) {
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: json: %w", err)
	}
	return append(out, '\n'), nil
}

var (
	reportPolicyOnce sync.Once
	reportPolicy     *bluemonday.Policy
)

// SanitizeHTML strips everything but the report markup.
func SanitizeHTML(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(reportSanitizer().Sanitize(trimmed)) + "\n"
}

func reportSanitizer() *bluemonday.Policy {
	reportPolicyOnce.Do(func() {
		policy := bluemonday.NewPolicy()
		elements := []string{
			"section", "h1", "h2", "table", "tbody", "tr", "th", "td",
			"p", "ul", "li", "strong", "span",
		}
		policy.AllowElements(elements...)
		policy.AllowAttrs("class").OnElements(elements...)
		policy.AllowAttrs("scope").OnElements("th")
		reportPolicy = policy
	})
	return reportPolicy
}
