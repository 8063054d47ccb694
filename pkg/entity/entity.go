// pkg/entity/entity.go
package entity

import (
	"github.com/go-gl/mathgl/mgl64"
)

// ID is a unique identifier for an entity
type ID uint64

// Entity is the base interface for simulated objects
type Entity interface {
	GetID() ID
	GetPosition() mgl64.Vec3
	GetVelocity() mgl64.Vec3
}

// BaseEntity contains the state shared by all entities
type BaseEntity struct {
	ID       ID
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Active   bool
}

// GetID returns the entity's unique identifier
func (e *BaseEntity) GetID() ID {
	return e.ID
}

// GetPosition returns the entity's position
func (e *BaseEntity) GetPosition() mgl64.Vec3 {
	return e.Position
}

// GetVelocity returns the velocity applied on the last tick
func (e *BaseEntity) GetVelocity() mgl64.Vec3 {
	return e.Velocity
}
