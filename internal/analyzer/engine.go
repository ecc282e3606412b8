package analyzer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-photo-qc/pkg/models"
)

// Engine runs a fixed, ordered battery of metrics. Safe for concurrent use.
type Engine struct {
	opts     Options
	registry *Registry
	pool     *WorkerPool
}

var _ Analyzer = (*Engine)(nil)

// NewEngine builds the registry from the default battery plus extra
// descriptors (usually injected scorers), then applies opts.MetricSubset.
func NewEngine(opts Options, extra ...Descriptor) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	full := NewRegistry()
	for _, d := range append(DefaultDescriptors(), extra...) {
		if err := full.Register(d); err != nil {
			return nil, err
		}
	}
	registry, err := full.Subset(opts.MetricSubset)
	if err != nil {
		return nil, err
	}

	pool := NewWorkerPool(opts.MaxWorkers)
	pool.Start()

	return &Engine{opts: opts, registry: registry, pool: pool}, nil
}

// Descriptors lists the active metrics in report order.
func (e *Engine) Descriptors() []Descriptor {
	return e.registry.Descriptors()
}

func (e *Engine) Options() Options { return e.opts }

// Resolve checks names against the active metrics and returns their
// descriptors in report order.
func (e *Engine) Resolve(names []string) ([]Descriptor, error) {
	sub, err := e.registry.Subset(names)
	if err != nil {
		return nil, err
	}
	return sub.Descriptors(), nil
}

// PoolStats exposes worker pool counters.
func (e *Engine) PoolStats() PoolStats { return e.pool.GetStats() }

// Close stops the worker pool. Runs in flight finish their queued work.
func (e *Engine) Close() error {
	e.pool.Close()
	return nil
}

// Run computes every active metric and never fails as a whole: each metric
// yields exactly one result, failed ones carrying a reason. When the
// deadline passes, metrics still pending are recorded as timed out and
// their late results are discarded.
func (e *Engine) Run(ctx context.Context, in RunInput) models.Report {
	start := time.Now()
	descs := e.registry.order
	if len(in.Metrics) > 0 {
		descs = e.registry.filter(in.Metrics)
	}

	report := models.Report{
		ID:        uuid.NewString(),
		Source:    in.Source,
		Reference: in.ReferenceSource,
		Timestamp: start,
		Metadata:  in.Metadata,
	}
	results := make([]models.MetricResult, len(descs))

	if in.Image == nil {
		for i, d := range descs {
			results[i] = failedResult(d, "no image")
		}
		report.Results = results
		return report
	}
	report.Image = models.ImageInfo{
		Width:    in.Image.Width(),
		Height:   in.Image.Height(),
		Channels: in.Image.Channels(),
		Format:   in.Format,
	}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	input := NewInput(ctx, e.opts, in.Image, in.Reference)

	var (
		mu        sync.Mutex
		finalized bool
		pending   int
	)
	done := make([]bool, len(descs))
	allDone := make(chan struct{})

	record := func(i int, res models.MetricResult) {
		mu.Lock()
		defer mu.Unlock()
		if finalized || done[i] {
			return
		}
		results[i] = res
		done[i] = true
		pending--
		if pending == 0 {
			close(allDone)
		}
	}

	var jobs []int
	for i, d := range descs {
		if ok := supports(d, in); !ok {
			res := failedResult(d, models.ReasonUnsupportedCapability)
			res.Detail = map[string]any{"requires": d.Capability.String()}
			results[i] = res
			done[i] = true
			continue
		}
		jobs = append(jobs, i)
	}

	pending = len(jobs)
	if pending == 0 {
		close(allDone)
	}
	for _, i := range jobs {
		d := descs[i]
		if !e.pool.SubmitContext(ctx, func() { record(i, compute(input, d)) }) {
			record(i, failedResult(d, stopReason(ctx)))
		}
	}

	select {
	case <-allDone:
	case <-ctx.Done():
	}

	mu.Lock()
	finalized = true
	for i, d := range descs {
		if !done[i] {
			results[i] = failedResult(d, stopReason(ctx))
		}
	}
	mu.Unlock()

	report.Results = results
	report.ProcessingTimeSec = time.Since(start).Seconds()
	return report
}

func supports(d Descriptor, in RunInput) bool {
	switch d.Capability {
	case CapabilityColor:
		return in.Image.IsColor()
	case CapabilityDualImage:
		return in.Reference != nil
	default:
		return true
	}
}

// compute runs one metric, turning errors, panics and NaN into failures.
func compute(in *Input, d Descriptor) (res models.MetricResult) {
	res = models.MetricResult{Name: d.Name, Family: d.Family, Unit: d.Unit}
	if in.Context().Err() != nil {
		return failedResult(d, stopReason(in.Context()))
	}

	defer func() {
		if r := recover(); r != nil {
			res = failedResult(d, fmt.Sprintf("panic: %v", r))
		}
	}()

	v, err := d.Compute(in)
	if err != nil {
		if in.Context().Err() != nil {
			return failedResult(d, stopReason(in.Context()))
		}
		return failedResult(d, err.Error())
	}

	status := v.Status
	if status == "" {
		status = models.StatusOK
	}
	if status == models.StatusOK && math.IsNaN(v.V) {
		return failedResult(d, models.ReasonNaN)
	}

	res.Status = status
	res.Reason = v.Reason
	res.Detail = v.Detail
	if status == models.StatusOK {
		res.Value = v.V
	}
	return res
}

func failedResult(d Descriptor, reason string) models.MetricResult {
	return models.MetricResult{
		Name:   d.Name,
		Family: d.Family,
		Unit:   d.Unit,
		Status: models.StatusFailed,
		Reason: reason,
	}
}

func stopReason(ctx context.Context) string {
	if errors.Is(ctx.Err(), context.Canceled) {
		return "canceled"
	}
	if ctx.Err() == nil {
		return "engine closed"
	}
	return models.ReasonTimeout
}
