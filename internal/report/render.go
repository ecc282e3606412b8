// Package report renders quality reports as text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"go-photo-qc/pkg/models"
	"go-photo-qc/pkg/validation"
)

// Format selects an output encoding
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json, yaml or yml
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// Entry is one rendered item: a report with its verdict, or the error that
// prevented a report
type Entry struct {
	Source  string              `json:"source" yaml:"source"`
	Report  *models.Report      `json:"report,omitempty" yaml:"report,omitempty"`
	Verdict *validation.Verdict `json:"verdict,omitempty" yaml:"verdict,omitempty"`
	Error   string              `json:"error,omitempty" yaml:"error,omitempty"`
}

// Write renders entries. Structured formats emit a single object for one
// entry and a list otherwise.
func Write(w io.Writer, format Format, entries []Entry) error {
	switch format {
	case FormatJSON, FormatYAML:
		if len(entries) == 1 {
			return Encode(w, format, entries[0])
		}
		return Encode(w, format, entries)
	case FormatText, "":
		for i, e := range entries {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if err := writeText(w, e); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// Encode writes v in one of the structured formats
func Encode(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%q is not a structured format", format)
	}
}

func writeText(w io.Writer, e Entry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", e.Source)
	if e.Error != "" {
		fmt.Fprintf(&b, "error: %s\n", e.Error)
		_, err := io.WriteString(w, b.String())
		return err
	}

	if r := e.Report; r != nil {
		fmt.Fprintf(&b, "id: %s\n", r.ID)
		if r.Reference != "" {
			fmt.Fprintf(&b, "reference: %s\n", r.Reference)
		}
		fmt.Fprintf(&b, "image: %dx%d, %d channels", r.Image.Width, r.Image.Height, r.Image.Channels)
		if r.Image.Format != "" {
			fmt.Fprintf(&b, ", %s", r.Image.Format)
		}
		fmt.Fprintf(&b, "\nprocessing_time_sec: %.3f\n", r.ProcessingTimeSec)
		b.WriteString(Text(*r))
	}

	if v := e.Verdict; v != nil {
		status := "passed"
		if !v.Passed {
			status = "failed"
		}
		fmt.Fprintf(&b, "verdict: %s (%.1f MP, %s)\n", status, v.Megapixels, v.ResolutionClass)
		for _, issue := range v.Issues {
			fmt.Fprintf(&b, "  [%s] %s: %s\n", issue.Severity, issue.Metric, issue.Message)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Text renders one "name: value" line per metric in report order. Metrics
// without a value show their status and reason instead.
func Text(r models.Report) string {
	var b strings.Builder
	for _, res := range r.Results {
		b.WriteString(res.Name)
		b.WriteString(": ")
		b.WriteString(res.FormatValue())
		if res.OK() && res.Unit != "" {
			b.WriteString(" ")
			b.WriteString(res.Unit)
		}
		if !res.OK() && res.Reason != "" {
			fmt.Fprintf(&b, " (%s)", res.Reason)
		}
		b.WriteString("\n")
	}
	return b.String()
}
