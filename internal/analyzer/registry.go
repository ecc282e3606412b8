package analyzer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateMetric = errors.New("duplicate metric name")
	ErrUnknownMetric   = errors.New("unknown metric")
)

// Registry is an ordered set of uniquely named descriptors.
type Registry struct {
	order []Descriptor
	index map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register appends d, rejecting empty names, nil functions and duplicates.
func (r *Registry) Register(d Descriptor) error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("metric name must not be empty")
	}
	if d.Compute == nil {
		return fmt.Errorf("metric %s has no compute function", d.Name)
	}
	if _, exists := r.index[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateMetric, d.Name)
	}
	r.index[d.Name] = len(r.order)
	r.order = append(r.order, d)
	return nil
}

func (r *Registry) Lookup(name string) (Descriptor, bool) {
	i, ok := r.index[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.order[i], true
}

func (r *Registry) Len() int { return len(r.order) }

// Descriptors returns a copy in registration order.
func (r *Registry) Descriptors() []Descriptor {
	return append([]Descriptor(nil), r.order...)
}

// Subset returns a registry holding only the named metrics, still in
// registration order. An empty list returns r itself.
func (r *Registry) Subset(names []string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}
	want := make(map[string]bool, len(names))
	var unknown []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := r.index[n]; !ok {
			unknown = append(unknown, n)
		}
		want[n] = true
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, strings.Join(unknown, ", "))
	}

	sub := NewRegistry()
	for _, d := range r.order {
		if want[d.Name] {
			_ = sub.Register(d)
		}
	}
	return sub, nil
}

// filter keeps the known names in registration order, skipping the rest.
func (r *Registry) filter(names []string) []Descriptor {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.TrimSpace(n)] = true
	}
	var out []Descriptor
	for _, d := range r.order {
		if want[d.Name] {
			out = append(out, d)
		}
	}
	return out
}

// DefaultDescriptors returns the built-in metric battery in report order.
func DefaultDescriptors() []Descriptor {
	var all []Descriptor
	all = append(all, sharpnessDescriptors()...)
	all = append(all, noiseDescriptors()...)
	all = append(all, colorDescriptors()...)
	all = append(all, opticalDescriptors()...)
	all = append(all, compressionDescriptors()...)
	all = append(all, referenceDescriptors()...)
	return all
}

// DefaultMetricNames lists the built-in metric names in report order.
func DefaultMetricNames() []string {
	descs := DefaultDescriptors()
	names := make([]string, len(descs))
	for i, d := range descs {
		names[i] = d.Name
	}
	return names
}
