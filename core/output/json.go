package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter writes the report as JSON
type JSONFormatter struct {
	Indent bool
}

// Format returns FormatJSON
func (JSONFormatter) Format() Format { return FormatJSON }

// Render writes the report
func (f JSONFormatter) Render(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(report)
}
