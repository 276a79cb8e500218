// Package delivery sends recorded leads and tracked events to the configured
// sinks. Every sink gets exactly one attempt with its own timeout; a failing
// sink never stops the others and never fails the caller.
package delivery

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/retirement-leads/internal/entity"
	"github.com/xavierca1/retirement-leads/internal/usecase"
)

// ErrSkipped is returned by an event sink that has no mapping for an event.
var ErrSkipped = eris.New("delivery: event not handled by sink")

// Sink receives verified leads.
type Sink interface {
	Name() string
	Send(ctx context.Context, lead *entity.Lead, contact *entity.Contact) error
}

// EventSink receives non-lead analytics events. Sinks implementing both
// interfaces are registered for both.
type EventSink interface {
	Name() string
	SendEvent(ctx context.Context, event entity.TrackedEvent) error
}

var (
	deliveryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_delivery_attempts_total",
			Help: "Delivery attempts by sink and outcome",
		},
		[]string{"sink", "kind", "outcome"},
	)

	deliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lead_delivery_duration_seconds",
			Help:    "Duration of a single sink delivery",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"},
	)
)

type Fanout struct {
	sinks      []Sink
	eventSinks []EventSink
	timeout    time.Duration
}

// NewFanout registers sinks. Nil sinks are ignored so optional integrations
// can be passed straight from their constructors.
func NewFanout(timeout time.Duration, sinks ...any) *Fanout {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	f := &Fanout{timeout: timeout}
	for _, s := range sinks {
		if isNil(s) {
			continue
		}
		if ls, ok := s.(Sink); ok {
			f.sinks = append(f.sinks, ls)
		}
		if es, ok := s.(EventSink); ok {
			f.eventSinks = append(f.eventSinks, es)
		}
	}
	return f
}

// Names lists the registered lead sinks.
func (f *Fanout) Names() []string {
	names := make([]string, 0, len(f.sinks))
	for _, s := range f.sinks {
		names = append(names, s.Name())
	}
	return names
}

func (f *Fanout) Deliver(ctx context.Context, lead *entity.Lead, contact *entity.Contact) entity.DeliveryReport {
	report := entity.DeliveryReport{
		LeadID:   lead.ID,
		Event:    entity.EventLeadCaptured,
		Attempts: make([]entity.DeliveryAttempt, len(f.sinks)),
	}

	var g errgroup.Group
	for i, s := range f.sinks {
		g.Go(func() error {
			report.Attempts[i] = f.attempt(ctx, s.Name(), "lead", func(ctx context.Context) error {
				return s.Send(ctx, lead, contact)
			})
			return nil
		})
	}
	_ = g.Wait()

	for _, a := range report.Failed() {
		zap.L().Warn("delivery failed",
			zap.String("lead_id", lead.ID),
			zap.String("sink", a.Sink),
			zap.Int("status", a.StatusCode),
			zap.String("error", a.Error),
		)
	}
	return report
}

func (f *Fanout) Track(ctx context.Context, event entity.TrackedEvent) entity.DeliveryReport {
	report := entity.DeliveryReport{
		Event:    event.Name,
		Attempts: make([]entity.DeliveryAttempt, len(f.eventSinks)),
	}

	var g errgroup.Group
	for i, s := range f.eventSinks {
		g.Go(func() error {
			report.Attempts[i] = f.attempt(ctx, s.Name(), "event", func(ctx context.Context) error {
				return s.SendEvent(ctx, event)
			})
			return nil
		})
	}
	_ = g.Wait()

	for _, a := range report.Failed() {
		zap.L().Warn("event delivery failed",
			zap.String("event", event.Name),
			zap.String("sink", a.Sink),
			zap.String("error", a.Error),
		)
	}
	return report
}

func (f *Fanout) attempt(ctx context.Context, sink, kind string, send func(context.Context) error) entity.DeliveryAttempt {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	err := safeSend(ctx, sink, send)
	a := entity.DeliveryAttempt{Sink: sink, Duration: time.Since(start)}

	switch {
	case err == nil:
		a.Outcome = entity.OutcomeSuccess
	case errors.Is(err, ErrSkipped):
		a.Outcome = entity.OutcomeSkipped
	default:
		a.Outcome = entity.OutcomeFailure
		a.Error = err.Error()
		var de *usecase.DeliveryError
		if errors.As(err, &de) {
			a.StatusCode = de.StatusCode
		}
	}

	deliveryAttempts.WithLabelValues(sink, kind, a.Outcome).Inc()
	deliveryDuration.WithLabelValues(sink).Observe(a.Duration.Seconds())
	return a
}

// safeSend turns a panicking sink into a failed attempt.
func safeSend(ctx context.Context, sink string, send func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &usecase.DeliveryError{Sink: sink, Err: eris.Errorf("panic: %v", r)}
		}
	}()
	return send(ctx)
}

func isNil(s any) bool {
	if s == nil {
		return true
	}
	v := reflect.ValueOf(s)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
