package step

import (
	"context"
)

// Parser turns a raw STEP document into a File: verbatim header plus the
// populated entity table. Implementations live under internal/step.
type Parser interface {
	Parse(ctx context.Context, doc Document) (*File, error)
}

// ParserOptions collects the scanning knobs.
type ParserOptions struct {
	// AllowMissingTerminator tolerates documents truncated before the
	// END-ISO-10303-21 marker. Real-world exports are frequently cut short
	// after ENDSEC, and the entity data is still fully usable.
	AllowMissingTerminator bool
}

// ParserOption mutates ParserOptions prior to construction.
type ParserOption func(*ParserOptions)

// WithMissingTerminator tolerates the absent END-ISO-10303-21 marker.
func WithMissingTerminator() ParserOption {
	return func(opts *ParserOptions) {
		opts.AllowMissingTerminator = true
	}
}

// NewParserOptions applies a set of ParserOption values and returns the
// resulting configuration.
func NewParserOptions(options ...ParserOption) ParserOptions {
	cfg := ParserOptions{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return cfg
}
