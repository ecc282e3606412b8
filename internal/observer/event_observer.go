package observer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AnalysisEvent represents a quality analysis event
type AnalysisEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	Source         string                 `json:"source"`
	Reference      string                 `json:"reference,omitempty"`
	ReportID       string                 `json:"report_id,omitempty"`
	Metric         string                 `json:"metric,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of analysis event
type EventType string

const (
	// AnalysisStarted when a run begins
	AnalysisStarted EventType = "analysis_started"
	// AnalysisCompleted when a report was produced
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when no report could be produced
	AnalysisFailed EventType = "analysis_failed"
	// ImageLoaded when an image was fetched and decoded
	ImageLoaded EventType = "image_loaded"
	// ImageLoadFailed when fetching or decoding failed
	ImageLoadFailed EventType = "image_load_failed"
	// MetricFailed for each failed result inside a completed report
	MetricFailed EventType = "metric_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs analysis events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) *LoggingObserver {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles analysis events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"source":          event.Source,
		"processing_time": event.ProcessingTime.Seconds(),
		"success":         event.Success,
	}
	if event.Reference != "" {
		fields["reference"] = event.Reference
	}
	if event.ReportID != "" {
		fields["report_id"] = event.ReportID
	}
	if event.Metric != "" {
		fields["metric"] = event.Metric
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		entry.Info("Quality analysis started")
	case AnalysisCompleted:
		entry.Info("Quality analysis completed")
	case AnalysisFailed:
		entry.Error("Quality analysis failed")
	case ImageLoaded:
		entry.Debug("Image loaded")
	case ImageLoadFailed:
		entry.Error("Image load failed")
	case MetricFailed:
		entry.Warn("Metric failed")
	default:
		entry.Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// Snapshot is a point-in-time copy of the collected counters
type Snapshot struct {
	TotalAnalyses      int64            `json:"total_analyses"`
	SuccessfulAnalyses int64            `json:"successful_analyses"`
	FailedAnalyses     int64            `json:"failed_analyses"`
	AvgProcessingSec   float64          `json:"avg_processing_time_sec"`
	MetricFailures     map[string]int64 `json:"metric_failures"`
}

// MetricsObserver collects counters from analysis events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalAnalyses       int64
	successfulAnalyses  int64
	failedAnalyses      int64
	totalProcessingTime time.Duration
	metricFailures      map[string]int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{metricFailures: make(map[string]int64)}
}

// OnEvent handles analysis events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case AnalysisStarted:
		o.totalAnalyses++
	case AnalysisCompleted:
		o.successfulAnalyses++
		o.totalProcessingTime += event.ProcessingTime
	case AnalysisFailed:
		o.failedAnalyses++
	case MetricFailed:
		o.metricFailures[event.Metric]++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current counters
func (o *MetricsObserver) GetMetrics() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	s := Snapshot{
		TotalAnalyses:      o.totalAnalyses,
		SuccessfulAnalyses: o.successfulAnalyses,
		FailedAnalyses:     o.failedAnalyses,
		MetricFailures:     make(map[string]int64, len(o.metricFailures)),
	}
	if o.successfulAnalyses > 0 {
		s.AvgProcessingSec = (o.totalProcessingTime / time.Duration(o.successfulAnalyses)).Seconds()
	}
	for k, v := range o.metricFailures {
		s.MetricFailures[k] = v
	}
	return s
}

// FailingMetrics returns metric names ordered by failure count, highest first
func (s Snapshot) FailingMetrics() []string {
	names := make([]string, 0, len(s.MetricFailures))
	for name := range s.MetricFailures {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.MetricFailures[names[i]] != s.MetricFailures[names[j]] {
			return s.MetricFailures[names[i]] > s.MetricFailures[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers an event to every observer in subscription
// order. A panicking observer is logged and skipped.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	for _, obs := range observers {
		notify(ctx, obs, event)
	}
}

func notify(ctx context.Context, obs Observer, event AnalysisEvent) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
