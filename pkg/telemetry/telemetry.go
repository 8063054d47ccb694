// Package telemetry exports per-tick character metrics through OpenTelemetry.
// Without a configured global provider the instruments are no-ops.
package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/opd-ai/go-skijet/pkg/entity"
	"github.com/opd-ai/go-skijet/pkg/event"
)

const instrumentationName = "github.com/opd-ai/go-skijet/pkg/telemetry"

// Recorder holds the simulation's instruments.
type Recorder struct {
	ticks       metric.Int64Counter
	speed       metric.Float64Histogram
	fuel        metric.Float64ObservableGauge
	transitions metric.Int64Counter

	registration metric.Registration

	mu        sync.RWMutex
	fuelByID  map[entity.ID]float64
	skiingIDs map[entity.ID]bool
	bus       *event.Bus
	subs      []event.SubscriptionID
}

// NewRecorder creates the instruments on m. A nil meter uses the global
// provider.
func NewRecorder(m metric.Meter) (*Recorder, error) {
	if m == nil {
		m = otel.Meter(instrumentationName)
	}
	r := &Recorder{
		fuelByID:  make(map[entity.ID]float64),
		skiingIDs: make(map[entity.ID]bool),
	}

	var err error
	r.ticks, err = m.Int64Counter(
		"skijet.ticks",
		metric.WithDescription("Character ticks simulated"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}

	r.speed, err = m.Float64Histogram(
		"skijet.horizontal_speed",
		metric.WithDescription("Horizontal speed after each tick"),
		metric.WithUnit("m/s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating speed histogram: %w", err)
	}

	r.fuel, err = m.Float64ObservableGauge(
		"skijet.fuel.fraction",
		metric.WithDescription("Thruster tank level in [0, 1]"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fuel gauge: %w", err)
	}

	r.registration, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			for id, f := range r.fuelByID {
				o.ObserveFloat64(r.fuel, f, metric.WithAttributes(entityAttr(id)))
			}
			return nil
		},
		r.fuel,
	)
	if err != nil {
		return nil, fmt.Errorf("registering fuel callback: %w", err)
	}

	r.transitions, err = m.Int64Counter(
		"skijet.transitions",
		metric.WithDescription("Character state transitions by event type"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transitions counter: %w", err)
	}

	return r, nil
}

func entityAttr(id entity.ID) attribute.KeyValue {
	return attribute.Int64("entity", int64(id))
}

// Observe records one tick result.
func (r *Recorder) Observe(id entity.ID, res entity.TickResult) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		entityAttr(id),
		attribute.Bool("grounded", res.Grounded),
		attribute.Bool("skiing", res.Skiing),
	)
	r.ticks.Add(ctx, 1, attrs)
	r.speed.Record(ctx, res.Speed, attrs)

	r.mu.Lock()
	r.fuelByID[id] = res.FuelFraction
	r.skiingIDs[id] = res.Skiing
	r.mu.Unlock()
}

// Subscribe counts every character transition published on bus.
func (r *Recorder) Subscribe(bus *event.Bus) {
	if bus == nil {
		return
	}
	r.bus = bus
	r.subs = bus.SubscribeAll(event.CharacterTypes, func(e event.Event) {
		if e.GetType() == event.GroundContact {
			return
		}
		r.transitions.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("event", string(e.GetType()))))
	})
}

// Skiing reports whether id was skiing on its last observed tick.
func (r *Recorder) Skiing(id entity.ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.skiingIDs[id]
}

// Close detaches the recorder from its bus and gauge callback.
func (r *Recorder) Close() error {
	if r.bus != nil {
		for i, id := range r.subs {
			r.bus.Unsubscribe(event.CharacterTypes[i], id)
		}
		r.subs = nil
	}
	if r.registration != nil {
		return r.registration.Unregister()
	}
	return nil
}
