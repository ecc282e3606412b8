package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// MetricStatus tells whether a metric produced a value.
type MetricStatus string

const (
	StatusOK       MetricStatus = "ok"
	StatusFailed   MetricStatus = "failed"
	StatusNoResult MetricStatus = "no_result"
)

// Failure reasons recorded on failed results.
const (
	ReasonUnsupportedCapability = "unsupported-capability"
	ReasonDimensionMismatch     = "dimension-mismatch"
	ReasonTimeout               = "timeout"
	ReasonNaN                   = "non-finite result"
	ReasonNoLines               = "no lines found"
)

// MetricResult is the outcome of one metric for one image.
type MetricResult struct {
	Name   string         `json:"name" yaml:"name"`
	Family string         `json:"family" yaml:"family"`
	Value  float64        `json:"value" yaml:"value"`
	Status MetricStatus   `json:"status" yaml:"status"`
	Reason string         `json:"reason,omitempty" yaml:"reason,omitempty"`
	Unit   string         `json:"unit,omitempty" yaml:"unit,omitempty"`
	Detail map[string]any `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// OK reports whether the result carries a usable value.
func (m MetricResult) OK() bool { return m.Status == StatusOK }

type metricResultJSON struct {
	Name   string         `json:"name"`
	Family string         `json:"family"`
	Value  any            `json:"value"`
	Status MetricStatus   `json:"status"`
	Reason string         `json:"reason,omitempty"`
	Unit   string         `json:"unit,omitempty"`
	Detail map[string]any `json:"detail,omitempty"`
}

// MarshalJSON renders infinities as "+Inf"/"-Inf" and NaN as null since
// JSON has no literal for them.
func (m MetricResult) MarshalJSON() ([]byte, error) {
	out := metricResultJSON{
		Name:   m.Name,
		Family: m.Family,
		Value:  m.Value,
		Status: m.Status,
		Reason: m.Reason,
		Unit:   m.Unit,
		Detail: m.Detail,
	}
	switch {
	case math.IsInf(m.Value, 1):
		out.Value = "+Inf"
	case math.IsInf(m.Value, -1):
		out.Value = "-Inf"
	case math.IsNaN(m.Value):
		out.Value = nil
	}
	return json.Marshal(out)
}

func (m *MetricResult) UnmarshalJSON(data []byte) error {
	var in metricResultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*m = MetricResult{
		Name:   in.Name,
		Family: in.Family,
		Status: in.Status,
		Reason: in.Reason,
		Unit:   in.Unit,
		Detail: in.Detail,
	}
	switch v := in.Value.(type) {
	case float64:
		m.Value = v
	case nil:
		m.Value = math.NaN()
	case string:
		switch v {
		case "+Inf", "Inf":
			m.Value = math.Inf(1)
		case "-Inf":
			m.Value = math.Inf(-1)
		default:
			return fmt.Errorf("metric %s: invalid value %q", in.Name, v)
		}
	default:
		return fmt.Errorf("metric %s: invalid value type %T", in.Name, v)
	}
	return nil
}

// FormatValue renders the value for text output.
func (m MetricResult) FormatValue() string {
	switch {
	case m.Status != StatusOK:
		return string(m.Status)
	case math.IsInf(m.Value, 1):
		return "+Inf"
	case math.IsInf(m.Value, -1):
		return "-Inf"
	default:
		return fmt.Sprintf("%.6g", m.Value)
	}
}

// ImageInfo describes the analyzed buffer.
type ImageInfo struct {
	Width    int    `json:"width" yaml:"width"`
	Height   int    `json:"height" yaml:"height"`
	Channels int    `json:"channels" yaml:"channels"`
	Format   string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Report is the ordered collection of metric results for one image.
type Report struct {
	ID                string         `json:"id" yaml:"id"`
	Source            string         `json:"source,omitempty" yaml:"source,omitempty"`
	Reference         string         `json:"reference,omitempty" yaml:"reference,omitempty"`
	Image             ImageInfo      `json:"image" yaml:"image"`
	Timestamp         time.Time      `json:"timestamp" yaml:"timestamp"`
	ProcessingTimeSec float64        `json:"processing_time_sec" yaml:"processing_time_sec"`
	Results           []MetricResult `json:"results" yaml:"results"`
	Metadata          map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Result looks up a metric by name.
func (r Report) Result(name string) (MetricResult, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return MetricResult{}, false
}

// Value returns the value of a successful metric.
func (r Report) Value(name string) (float64, bool) {
	res, ok := r.Result(name)
	if !ok || !res.OK() {
		return 0, false
	}
	return res.Value, true
}

// Failed returns every result whose status is failed.
func (r Report) Failed() []MetricResult {
	var out []MetricResult
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			out = append(out, res)
		}
	}
	return out
}

// Names returns metric names in report order.
func (r Report) Names() []string {
	names := make([]string, len(r.Results))
	for i, res := range r.Results {
		names[i] = res.Name
	}
	return names
}
