// Package output renders calculation batches for humans and machines.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"taxmap/core/engine"
)

// Format represents output format type
type Format string

const (
	// FormatTable is a human-readable terminal table
	FormatTable Format = "table"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"

	// FormatCSV is one row per country
	FormatCSV Format = "csv"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given report
	Render(w io.Writer, report *Report) error
}

// Report is what formatters render
type Report struct {
	// Batch is the calculation being rendered
	Batch *engine.Batch `json:"batch"`

	// Summary holds aggregate statistics over the batch
	Summary Summary `json:"summary"`

	// Top limits table output to the first N rows; 0 shows all
	Top int `json:"-"`
}

// NewReport builds a report and its summary
func NewReport(batch *engine.Batch) *Report {
	r := &Report{Batch: batch}
	if batch != nil {
		r.Summary = Summarize(batch.Results)
	}
	return r
}

// Registry maps formats to formatters
type Registry struct {
	formatters map[Format]Formatter
}

// NewRegistry returns a registry holding the built-in formatters
func NewRegistry(noColor bool) *Registry {
	r := &Registry{formatters: make(map[Format]Formatter)}
	r.Register(NewTableFormatter(noColor))
	r.Register(JSONFormatter{Indent: true})
	r.Register(CSVFormatter{})
	return r
}

// Register adds or replaces a formatter
func (r *Registry) Register(f Formatter) {
	r.formatters[f.Format()] = f
}

// Get returns the formatter for format
func (r *Registry) Get(format Format) (Formatter, error) {
	f, ok := r.formatters[format]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %s)", format, strings.Join(r.names(), ", "))
	}
	return f, nil
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.formatters))
	for f := range r.formatters {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// ParseFormat maps a flag value onto a Format; "cli" is accepted for table
func ParseFormat(s string) Format {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "", "cli", "table":
		return FormatTable
	default:
		return Format(name)
	}
}
