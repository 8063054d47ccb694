// Package event carries character state transitions to observers such as
// telemetry, audio cues and the CLI summary.
package event

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Type names an event.
type Type string

// Character transitions.
const (
	SkiStarted       Type = "ski_started"
	SkiStopped       Type = "ski_stopped"
	Jumped           Type = "jumped"
	TookOff          Type = "took_off"
	Landed           Type = "landed"
	ThrusterIgnited  Type = "thruster_ignited"
	ThrusterDepleted Type = "thruster_depleted"
	FuelFull         Type = "fuel_full"
	GroundContact    Type = "ground_contact"
)

// CharacterTypes lists every character transition, in declaration order.
var CharacterTypes = []Type{
	SkiStarted, SkiStopped, Jumped, TookOff, Landed,
	ThrusterIgnited, ThrusterDepleted, FuelFull, GroundContact,
}

// Event is implemented by everything published on a Bus.
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent is embedded by concrete events.
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type.
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns whatever published the event.
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler receives published events.
type Handler func(Event)

// SubscriptionID identifies a handler for Unsubscribe.
type SubscriptionID uint64

type subscription struct {
	id      SubscriptionID
	handler Handler
}

// Bus dispatches events synchronously on the publisher's goroutine.
type Bus struct {
	handlers map[Type][]subscription
	nextID   SubscriptionID
	mu       sync.RWMutex
}

// NewEventBus creates an empty bus.
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]subscription),
		nextID:   1,
	}
}

// Subscribe registers handler for eventType.
func (b *Bus) Subscribe(eventType Type, handler Handler) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})
	return id
}

// SubscribeAll registers handler for every type in types and returns the
// IDs in the same order.
func (b *Bus) SubscribeAll(types []Type, handler Handler) []SubscriptionID {
	ids := make([]SubscriptionID, 0, len(types))
	for _, t := range types {
		ids = append(ids, b.Subscribe(t, handler))
	}
	return ids
}

// Unsubscribe removes the handler registered under id. It reports whether
// anything was removed.
func (b *Bus) Unsubscribe(eventType Type, id SubscriptionID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventType]
	for i, s := range subs {
		if s.id == id {
			// Copy so a Publish iterating the old slice is unaffected.
			next := make([]subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			b.handlers[eventType] = next
			return true
		}
	}
	return false
}

// Publish calls every handler subscribed to the event's type, in
// subscription order.
func (b *Bus) Publish(event Event) {
	if b == nil || event == nil {
		return
	}
	b.mu.RLock()
	subs := b.handlers[event.GetType()]
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(event)
	}
}

// CharacterEvent reports a transition of one simulated character.
type CharacterEvent struct {
	BaseEvent
	EntityID     uint64
	Tick         uint64
	Velocity     mgl64.Vec3
	FuelFraction float64
}

// NewCharacterEvent creates a character transition event.
func NewCharacterEvent(eventType Type, source interface{}, entityID, tick uint64, velocity mgl64.Vec3, fuel float64) *CharacterEvent {
	return &CharacterEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		EntityID:     entityID,
		Tick:         tick,
		Velocity:     velocity,
		FuelFraction: fuel,
	}
}

// ContactEvent reports a ground contact normal delivered by the host.
type ContactEvent struct {
	BaseEvent
	EntityID uint64
	Tick     uint64
	Normal   mgl64.Vec3
}

// NewContactEvent creates a ground contact event.
func NewContactEvent(source interface{}, entityID, tick uint64, normal mgl64.Vec3) *ContactEvent {
	return &ContactEvent{
		BaseEvent: BaseEvent{
			EventType: GroundContact,
			Source:    source,
		},
		EntityID: entityID,
		Tick:     tick,
		Normal:   normal,
	}
}
