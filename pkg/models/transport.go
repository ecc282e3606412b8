package models

// AnalyzeRequest asks for one image to be scored
type AnalyzeRequest struct {
	Source    string   `json:"source" yaml:"source" binding:"required"`
	Reference string   `json:"reference,omitempty" yaml:"reference,omitempty"`
	Profile   string   `json:"profile,omitempty" yaml:"profile,omitempty"`
	Metrics   []string `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// MetricInfo describes one registered metric
type MetricInfo struct {
	Name       string `json:"name" yaml:"name"`
	Family     string `json:"family" yaml:"family"`
	Unit       string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Capability string `json:"capability" yaml:"capability"`
}
