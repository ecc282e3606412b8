package validation

import (
	"fmt"

	"go-photo-qc/pkg/models"
)

// Severity levels for quality issues
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// QualityThresholds defines configurable thresholds for report interpretation
type QualityThresholds struct {
	// Sharpness (Laplacian variance)
	VerySoftLaplacian float64
	SoftLaplacian     float64

	// Chromatic aberration score in percent of width
	MinorChromaticAberration       float64
	SignificantChromaticAberration float64

	// Vignetting light falloff in percent
	ModerateVignetting    float64
	SignificantVignetting float64
	ReverseVignetting     float64

	// Lens distortion bow in percent of width
	LensDistortion float64

	// Blockiness mean squared response
	ModerateBlockiness    float64
	SignificantBlockiness float64

	// CIEDE2000 of the average color against white
	PerceptibleDeltaE float64
	SignificantDeltaE float64

	// Clipped pixels in percent
	ClippingWarning float64
	ClippingError   float64
}

// DefaultQualityThresholds returns the default interpretation thresholds
func DefaultQualityThresholds() QualityThresholds {
	return QualityThresholds{
		VerySoftLaplacian:              50,
		SoftLaplacian:                  100,
		MinorChromaticAberration:       0.01,
		SignificantChromaticAberration: 0.05,
		ModerateVignetting:             1,
		SignificantVignetting:          5,
		ReverseVignetting:              -1,
		LensDistortion:                 0.1,
		ModerateBlockiness:             100,
		SignificantBlockiness:          500,
		PerceptibleDeltaE:              1,
		SignificantDeltaE:              2,
		ClippingWarning:                1,
		ClippingError:                  5,
	}
}

// QualityValidator turns metric reports into human readable verdicts
type QualityValidator struct {
	thresholds QualityThresholds
}

// NewQualityValidator creates a new quality validator with default thresholds
func NewQualityValidator() *QualityValidator {
	return &QualityValidator{
		thresholds: DefaultQualityThresholds(),
	}
}

// NewQualityValidatorWithThresholds creates a quality validator with custom thresholds
func NewQualityValidatorWithThresholds(thresholds QualityThresholds) *QualityValidator {
	return &QualityValidator{
		thresholds: thresholds,
	}
}

// QualityIssue represents a quality validation issue
type QualityIssue struct {
	Type        string  `json:"type" yaml:"type"`
	Metric      string  `json:"metric" yaml:"metric"`
	Message     string  `json:"message" yaml:"message"`
	Severity    string  `json:"severity" yaml:"severity"` // "error", "warning", "info"
	ActualValue float64 `json:"actual_value" yaml:"actual_value"`
	Threshold   float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// Verdict is the interpretation of one report
type Verdict struct {
	Passed          bool           `json:"passed" yaml:"passed"`
	Megapixels      float64        `json:"megapixels" yaml:"megapixels"`
	ResolutionClass string         `json:"resolution_class" yaml:"resolution_class"`
	Issues          []QualityIssue `json:"issues" yaml:"issues"`
}

// Evaluate interprets every metric it knows about. Metrics that are absent
// or did not produce a value are skipped.
func (qv *QualityValidator) Evaluate(report models.Report) Verdict {
	var issues []QualityIssue
	add := func(issue *QualityIssue) {
		if issue != nil {
			issues = append(issues, *issue)
		}
	}

	add(qv.checkSharpness(report))
	add(qv.checkNoise(report))
	add(qv.checkChromaticAberration(report))
	add(qv.checkVignetting(report))
	add(qv.checkLensDistortion(report))
	add(qv.checkCompression(report))
	add(qv.checkColorAccuracy(report))
	add(qv.checkClipping(report, "shadow_clipping", "shadow_clipping", "pure black"))
	add(qv.checkClipping(report, "highlight_clipping", "highlight_clipping", "pure white"))

	mp := float64(report.Image.Width*report.Image.Height) / 1_000_000.0
	return Verdict{
		Passed:          !qv.HasCriticalIssues(issues),
		Megapixels:      mp,
		ResolutionClass: ResolutionClass(mp),
		Issues:          issues,
	}
}

func (qv *QualityValidator) checkSharpness(r models.Report) *QualityIssue {
	v, ok := r.Value("laplacian_variance")
	if !ok {
		return nil
	}
	switch {
	case v < qv.thresholds.VerySoftLaplacian:
		return &QualityIssue{
			Type:        "blurriness",
			Metric:      "laplacian_variance",
			Message:     "The image is very soft and likely out of focus.",
			Severity:    SeverityError,
			ActualValue: v,
			Threshold:   qv.thresholds.VerySoftLaplacian,
		}
	case v < qv.thresholds.SoftLaplacian:
		return &QualityIssue{
			Type:        "softness",
			Metric:      "laplacian_variance",
			Message:     "The image is soft but generally acceptable.",
			Severity:    SeverityWarning,
			ActualValue: v,
			Threshold:   qv.thresholds.SoftLaplacian,
		}
	}
	return nil
}

func (qv *QualityValidator) checkNoise(r models.Report) *QualityIssue {
	res, ok := r.Result("noise_dominance")
	if !ok || !res.OK() {
		return nil
	}
	dominance, _ := res.Detail["dominance"].(string)
	var msg string
	switch dominance {
	case "luminance-dominant":
		msg = "Luminance noise is more dominant. The image appears grainy."
	case "chrominance-dominant":
		msg = "Chrominance noise is more dominant. The image has color blotchiness."
	default:
		return nil
	}
	return &QualityIssue{
		Type:        "noise_" + dominance,
		Metric:      "noise_dominance",
		Message:     msg,
		Severity:    SeverityInfo,
		ActualValue: res.Value,
	}
}

func (qv *QualityValidator) checkChromaticAberration(r models.Report) *QualityIssue {
	v, ok := r.Value("chromatic_aberration")
	if !ok || v < qv.thresholds.MinorChromaticAberration {
		return nil
	}
	if v < qv.thresholds.SignificantChromaticAberration {
		return &QualityIssue{
			Type:        "chromatic_aberration",
			Metric:      "chromatic_aberration",
			Message:     "Minor chromatic aberration detected. Generally not visible.",
			Severity:    SeverityInfo,
			ActualValue: v,
			Threshold:   qv.thresholds.MinorChromaticAberration,
		}
	}
	return &QualityIssue{
		Type:        "chromatic_aberration",
		Metric:      "chromatic_aberration",
		Message:     "Significant chromatic aberration detected. Fringing may be noticeable.",
		Severity:    SeverityWarning,
		ActualValue: v,
		Threshold:   qv.thresholds.SignificantChromaticAberration,
	}
}

func (qv *QualityValidator) checkVignetting(r models.Report) *QualityIssue {
	v, ok := r.Value("vignetting")
	if !ok {
		return nil
	}
	issue := &QualityIssue{Type: "vignetting", Metric: "vignetting", ActualValue: v}
	switch {
	case v > qv.thresholds.SignificantVignetting:
		issue.Message = "Significant vignetting detected. Corners are darker than the center."
		issue.Severity = SeverityWarning
		issue.Threshold = qv.thresholds.SignificantVignetting
	case v > qv.thresholds.ModerateVignetting:
		issue.Message = "Moderate vignetting detected. Corners are slightly darker than the center."
		issue.Severity = SeverityInfo
		issue.Threshold = qv.thresholds.ModerateVignetting
	case v < qv.thresholds.ReverseVignetting:
		issue.Type = "reverse_vignetting"
		issue.Message = "Reverse vignetting detected. Corners are brighter than the center."
		issue.Severity = SeverityInfo
		issue.Threshold = qv.thresholds.ReverseVignetting
	default:
		return nil
	}
	return issue
}

func (qv *QualityValidator) checkLensDistortion(r models.Report) *QualityIssue {
	v, ok := r.Value("lens_distortion")
	if !ok {
		return nil
	}
	t := qv.thresholds.LensDistortion
	switch {
	case v > t:
		return &QualityIssue{
			Type:        "barrel_distortion",
			Metric:      "lens_distortion",
			Message:     "Barrel distortion detected. Straight lines bow outward.",
			Severity:    SeverityWarning,
			ActualValue: v,
			Threshold:   t,
		}
	case v < -t:
		return &QualityIssue{
			Type:        "pincushion_distortion",
			Metric:      "lens_distortion",
			Message:     "Pincushion distortion detected. Straight lines bow inward.",
			Severity:    SeverityWarning,
			ActualValue: v,
			Threshold:   -t,
		}
	}
	return nil
}

func (qv *QualityValidator) checkCompression(r models.Report) *QualityIssue {
	v, ok := r.Value("blockiness")
	if !ok || v < qv.thresholds.ModerateBlockiness {
		return nil
	}
	if v < qv.thresholds.SignificantBlockiness {
		return &QualityIssue{
			Type:        "compression_artifacts",
			Metric:      "blockiness",
			Message:     "Moderate compression artifacts detected. Image quality may be impacted.",
			Severity:    SeverityWarning,
			ActualValue: v,
			Threshold:   qv.thresholds.ModerateBlockiness,
		}
	}
	return &QualityIssue{
		Type:        "compression_artifacts",
		Metric:      "blockiness",
		Message:     "Significant compression artifacts detected. Image quality is likely low.",
		Severity:    SeverityError,
		ActualValue: v,
		Threshold:   qv.thresholds.SignificantBlockiness,
	}
}

func (qv *QualityValidator) checkColorAccuracy(r models.Report) *QualityIssue {
	v, ok := r.Value("white_balance_delta_e")
	if !ok || v <= qv.thresholds.PerceptibleDeltaE {
		return nil
	}
	if v <= qv.thresholds.SignificantDeltaE {
		return &QualityIssue{
			Type:        "color_cast",
			Metric:      "white_balance_delta_e",
			Message:     "The color cast is perceptible with close observation.",
			Severity:    SeverityInfo,
			ActualValue: v,
			Threshold:   qv.thresholds.PerceptibleDeltaE,
		}
	}
	return &QualityIssue{
		Type:        "color_cast",
		Metric:      "white_balance_delta_e",
		Message:     "A significant color cast is present. Color accuracy is low.",
		Severity:    SeverityWarning,
		ActualValue: v,
		Threshold:   qv.thresholds.SignificantDeltaE,
	}
}

func (qv *QualityValidator) checkClipping(r models.Report, metric, issueType, tone string) *QualityIssue {
	v, ok := r.Value(metric)
	if !ok || v <= qv.thresholds.ClippingWarning {
		return nil
	}
	issue := &QualityIssue{
		Type:        issueType,
		Metric:      metric,
		Message:     fmt.Sprintf("%.2f%% of pixels are %s.", v, tone),
		Severity:    SeverityWarning,
		ActualValue: v,
		Threshold:   qv.thresholds.ClippingWarning,
	}
	if v > qv.thresholds.ClippingError {
		issue.Severity = SeverityError
		issue.Threshold = qv.thresholds.ClippingError
	}
	return issue
}

// ResolutionClass labels common sensor resolutions
func ResolutionClass(megapixels float64) string {
	switch {
	case megapixels > 75 && megapixels < 85:
		return "80MP HR"
	case megapixels > 45 && megapixels < 55:
		return "50MP HR"
	case megapixels > 15 && megapixels < 25:
		return "20MP"
	default:
		return "Other"
	}
}

// ConvertIssuesToMessages converts quality issues to plain messages
func (qv *QualityValidator) ConvertIssuesToMessages(issues []QualityIssue) []string {
	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}

// HasCriticalIssues checks if there are any critical (error severity) issues
func (qv *QualityValidator) HasCriticalIssues(issues []QualityIssue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
