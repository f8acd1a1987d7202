package types

import "time"

// ReportEntry is one resolved requirement as written to the resolve report.
type ReportEntry struct {
	Name      string   `yaml:"name"`
	Locator   string   `yaml:"locator,omitempty"`
	Specifier string   `yaml:"specifier,omitempty"`
	Extras    []string `yaml:"extras,omitempty"`
	Marker    string   `yaml:"marker,omitempty"`
}

// ResolveReport summarizes a batch resolution. Requirements appear in
// manifest order.
type ResolveReport struct {
	GeneratedAt  time.Time     `yaml:"generated_at"`
	Manifest     string        `yaml:"manifest"`
	Requirements []ReportEntry `yaml:"requirements"`
}
