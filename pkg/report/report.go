// Package report renders the run summary written next to the split outputs:
// one `name;count` line per extracted unit, sorted by name. The template is
// swappable so embedding applications can reshape the report without
// touching the orchestrator.
package report

import (
	"errors"
	"fmt"
	"sort"

	"github.com/flosch/pongo2/v6"
)

// Entry is one extracted unit with its instance count. Count is greater than
// one when duplicate merging collapsed identical bodies, or when an assembly
// uses the same part several times.
type Entry struct {
	Name  string
	Count int
}

// Report is the data handed to the template.
type Report struct {
	Source  string
	Kind    string
	Entries []Entry
}

// Renderer converts a Report into the bytes written to disk.
type Renderer interface {
	Render(report Report) ([]byte, error)
}

// DefaultTemplate emits the `name;count` line format.
const DefaultTemplate = "{% for entry in entries %}{{ entry.Name }};{{ entry.Count }}\n{% endfor %}"

// Option customises the template renderer.
type Option func(*config)

type config struct {
	template string
}

// WithTemplate overrides the report template source.
func WithTemplate(src string) Option {
	return func(cfg *config) {
		cfg.template = src
	}
}

// TemplateRenderer renders reports through a pongo2 template.
type TemplateRenderer struct {
	tpl *pongo2.Template
}

// Ensure the implementation satisfies the public interface.
var _ Renderer = (*TemplateRenderer)(nil)

// NewRenderer compiles the template once so per-run rendering is cheap.
func NewRenderer(options ...Option) (*TemplateRenderer, error) {
	cfg := &config{template: DefaultTemplate}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	if cfg.template == "" {
		return nil, errors.New("report: template is empty")
	}
	tpl, err := pongo2.FromString(cfg.template)
	if err != nil {
		return nil, fmt.Errorf("report: parse template: %w", err)
	}
	return &TemplateRenderer{tpl: tpl}, nil
}

// Render sorts entries by name and executes the template.
func (r *TemplateRenderer) Render(report Report) ([]byte, error) {
	if r == nil || r.tpl == nil {
		return nil, errors.New("report: renderer is nil")
	}

	entries := append([]Entry(nil), report.Entries...)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	out, err := r.tpl.ExecuteBytes(pongo2.Context{
		"source":  report.Source,
		"kind":    report.Kind,
		"entries": entries,
	})
	if err != nil {
		return nil, fmt.Errorf("report: execute template: %w", err)
	}
	return out, nil
}
