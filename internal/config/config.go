// Package config defines the canonical, JSON-serializable run configuration
// for the retail analytics pipeline. It is intentionally small and explicit:
// decoding is performed by the standard library, and validation reports
// issues with severity and a JSON-ish path so the CLI can print them all at
// once instead of failing on the first.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Run is the top-level object decoded from a run configuration file.
type Run struct {
	// Job names the run in logs, metrics and the run-history sink.
	Job string `json:"job"`

	// Source locates the input CSV datasets.
	Source Source `json:"source"`

	// Export configures the JSON output directory.
	Export Export `json:"export"`

	// Metrics selects the operational-metrics backend.
	Metrics Metrics `json:"metrics"`

	// Storage optionally configures the run-history sink. An empty Kind
	// disables it.
	Storage Storage `json:"storage"`
}

// Source locates the input datasets.
type Source struct {
	// DataDir is the directory containing customers.csv, products.csv,
	// sales.csv and inventory.csv.
	DataDir string `json:"data_dir"`
}

// Export configures the JSON exporter.
type Export struct {
	// OutputDir receives metrics.json and the per-endpoint files.
	OutputDir string `json:"output_dir"`
}

// Metrics selects the operational-metrics backend.
type Metrics struct {
	// Backend is "pushgateway" or "none"/"" (disabled).
	Backend string `json:"backend"`

	// PushgatewayURL is the base URL of the Pushgateway server.
	PushgatewayURL string `json:"pushgateway_url"`
}

// Storage configures the optional run-history sink.
type Storage struct {
	// Kind selects the backend: "sqlite", "postgres", or "" (disabled).
	Kind string `json:"kind"`

	// DSN is the connection string (file path for sqlite, postgres URL for
	// postgres).
	DSN string `json:"dsn"`

	// Table is the destination table name. Defaults to "pipeline_runs".
	Table string `json:"table"`
}

// Load reads and decodes a run configuration file.
func Load(path string) (Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return Run{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	var r Run
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return Run{}, fmt.Errorf("config %s: %w", path, err)
	}
	return r, nil
}

// Severity levels for validation issues.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue is one validation finding.
type Issue struct {
	Severity string
	Path     string
	Message  string
}

// Validate checks a run configuration and returns all findings. The caller
// decides whether warnings are fatal.
func Validate(r Run) []Issue {
	var issues []Issue

	if r.Source.DataDir == "" {
		issues = append(issues, Issue{SeverityError, "source.data_dir", "data directory is required"})
	}
	if r.Export.OutputDir == "" {
		issues = append(issues, Issue{SeverityError, "export.output_dir", "output directory is required"})
	}

	switch r.Metrics.Backend {
	case "", "none":
	case "pushgateway":
		if r.Metrics.PushgatewayURL == "" {
			issues = append(issues, Issue{SeverityWarning, "metrics.pushgateway_url",
				"no URL configured; falling back to http://localhost:9091"})
		}
	default:
		issues = append(issues, Issue{SeverityError, "metrics.backend",
			fmt.Sprintf("unknown backend %q (want pushgateway or none)", r.Metrics.Backend)})
	}

	switch r.Storage.Kind {
	case "":
	case "sqlite", "postgres":
		if r.Storage.DSN == "" {
			issues = append(issues, Issue{SeverityError, "storage.dsn",
				fmt.Sprintf("dsn is required for kind %q", r.Storage.Kind)})
		}
	default:
		issues = append(issues, Issue{SeverityError, "storage.kind",
			fmt.Sprintf("unknown kind %q (want sqlite, postgres, or empty)", r.Storage.Kind)})
	}

	return issues
}
