package strategy

import (
	"fmt"
	"sort"

	"go-photo-qc/internal/analyzer"
)

// AnalysisStrategy picks which metrics a run computes
type AnalysisStrategy interface {
	// Select returns metric names from the available descriptors. An empty
	// result means every metric.
	Select(available []analyzer.Descriptor) []string
	GetStrategyName() string
}

// FamilyStrategy runs every metric of the listed families
type FamilyStrategy struct {
	name     string
	families map[string]bool
}

// NewFamilyStrategy creates a strategy over one or more metric families
func NewFamilyStrategy(name string, families ...string) *FamilyStrategy {
	set := make(map[string]bool, len(families))
	for _, f := range families {
		set[f] = true
	}
	return &FamilyStrategy{name: name, families: set}
}

func (s *FamilyStrategy) Select(available []analyzer.Descriptor) []string {
	var names []string
	for _, d := range available {
		if s.families[d.Family] {
			names = append(names, d.Name)
		}
	}
	return names
}

func (s *FamilyStrategy) GetStrategyName() string {
	return s.name
}

// FullStrategy runs the whole battery
type FullStrategy struct{}

func (FullStrategy) Select([]analyzer.Descriptor) []string { return nil }
func (FullStrategy) GetStrategyName() string               { return "full" }

// QuickStrategy runs a small set of cheap screening metrics
type QuickStrategy struct{}

var quickMetrics = []string{
	"laplacian_variance",
	"noise_luminance",
	"shadow_clipping",
	"highlight_clipping",
	"colorfulness",
}

func (QuickStrategy) Select(available []analyzer.Descriptor) []string {
	want := make(map[string]bool, len(quickMetrics))
	for _, n := range quickMetrics {
		want[n] = true
	}
	var names []string
	for _, d := range available {
		if want[d.Name] {
			names = append(names, d.Name)
		}
	}
	return names
}

func (QuickStrategy) GetStrategyName() string { return "quick" }

// Profiles maps profile names to strategies
type Profiles struct {
	byName map[string]AnalysisStrategy
}

// DefaultProfiles registers one profile per metric family plus quick and full
func DefaultProfiles() *Profiles {
	p := &Profiles{byName: make(map[string]AnalysisStrategy)}
	p.Register(FullStrategy{})
	p.Register(QuickStrategy{})
	for _, family := range []string{
		analyzer.FamilySharpness,
		analyzer.FamilyNoise,
		analyzer.FamilyColor,
		analyzer.FamilyOptical,
		analyzer.FamilyCompression,
		analyzer.FamilyReference,
		analyzer.FamilyLearned,
	} {
		p.Register(NewFamilyStrategy(family, family))
	}
	return p
}

// Register adds or replaces a profile
func (p *Profiles) Register(s AnalysisStrategy) {
	p.byName[s.GetStrategyName()] = s
}

// Get returns the named profile. An empty name selects full.
func (p *Profiles) Get(name string) (AnalysisStrategy, error) {
	if name == "" {
		name = "full"
	}
	s, ok := p.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q (available: %v)", name, p.Names())
	}
	return s, nil
}

// Names lists profile names alphabetically
func (p *Profiles) Names() []string {
	names := make([]string, 0, len(p.byName))
	for n := range p.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
