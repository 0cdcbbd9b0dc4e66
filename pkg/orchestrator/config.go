package orchestrator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config mirrors the orchestrator options for file-based configuration.
type Config struct {
	// Parallelism bounds concurrent unit extraction. Zero or one keeps the
	// pipeline sequential.
	Parallelism int `yaml:"parallelism"`

	// MergeDuplicates collapses geometrically identical units.
	MergeDuplicates bool `yaml:"merge_duplicates"`

	// PresentationTypes overrides the presentation allow-list. Empty keeps
	// the built-in default.
	PresentationTypes []string `yaml:"presentation_types"`

	// ReportTemplate overrides the report line template. Empty keeps the
	// built-in name;count format.
	ReportTemplate string `yaml:"report_template"`
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("orchestrator: read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("orchestrator: parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Options converts the configuration into constructor options. Zero values
// produce no option so file settings only override what they mention.
func (c Config) Options() []Option {
	var options []Option
	if c.Parallelism > 1 {
		options = append(options, WithParallelism(c.Parallelism))
	}
	if c.MergeDuplicates {
		options = append(options, WithMergeDuplicates())
	}
	if len(c.PresentationTypes) > 0 {
		options = append(options, WithPresentationTypes(c.PresentationTypes...))
	}
	return options
}
