// pkg/physics/contact.go
package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Contact describes a single collider hit reported by the host.
type Contact struct {
	Normal mgl64.Vec3
	Point  mgl64.Vec3
}

// ContactRegister is a single-slot holder for the latest ground contact
// normal. Every report overwrites the previous one (last write wins); nothing
// is queued. Until the first contact the normal reads as Up.
//
// The host delivers contact callbacks on the simulation goroutine, so the
// register is not synchronized.
type ContactRegister struct {
	normal   mgl64.Vec3
	point    mgl64.Vec3
	touched  bool
	contacts int
}

// NewContactRegister creates a register that reports Up until the first contact.
func NewContactRegister() *ContactRegister {
	return &ContactRegister{normal: Up}
}

// Report records a contact. Degenerate normals are ignored.
func (r *ContactRegister) Report(c Contact) {
	n := SafeNormalize(c.Normal)
	if n == Zero {
		return
	}
	r.normal = n
	r.point = c.Point
	r.touched = true
	r.contacts++
}

// ReportNormal records a contact with only a normal.
func (r *ContactRegister) ReportNormal(normal mgl64.Vec3) {
	r.Report(Contact{Normal: normal})
}

// Normal returns the last reported normal, or Up before any contact.
func (r *ContactRegister) Normal() mgl64.Vec3 {
	if r == nil || !r.touched {
		return Up
	}
	return r.normal
}

// Point returns the last reported contact point.
func (r *ContactRegister) Point() mgl64.Vec3 {
	return r.point
}

// Touched reports whether any contact has been recorded since construction.
func (r *ContactRegister) Touched() bool {
	return r != nil && r.touched
}

// Contacts returns the number of reports received since the last Reset.
func (r *ContactRegister) Contacts() int {
	return r.contacts
}

// Reset clears the per-tick contact count. The stored normal is kept: it
// stays valid (if stale) between contacts.
func (r *ContactRegister) Reset() {
	r.contacts = 0
}
