package ecs

import (
	"math"

	"github.com/jakecoffman/cp"

	"blockcity/ecs/component"
)

// PhysicsWorld owns the Chipmunk space for vehicles that carry a rigid
// body. The space is top-down: no gravity, rotation driven by the
// dynamics pass. Attaching a body is optional per vehicle; vehicles
// without one get direct Kinematics writes instead.
type PhysicsWorld struct {
	space  *cp.Space
	bodies map[Entity]*cp.Body
}

func NewPhysicsWorld() *PhysicsWorld {
	space := cp.NewSpace()
	space.Iterations = 10
	space.SetGravity(cp.Vector{})
	return &PhysicsWorld{
		space:  space,
		bodies: make(map[Entity]*cp.Body),
	}
}

// Space returns the underlying Chipmunk space.
func (pw *PhysicsWorld) Space() *cp.Space {
	return pw.space
}

// AttachVehicle creates a rigid body for a vehicle entity and stores
// it as a PhysicsBody component. Requires Transform, Collider, and
// VehicleProfile; missing components leave the entity untouched.
func (pw *PhysicsWorld) AttachVehicle(w *World, e Entity) bool {
	t, ok := Get(w, e, component.TransformComponent)
	if !ok {
		return false
	}
	c, ok := Get(w, e, component.ColliderComponent)
	if !ok {
		return false
	}
	vp, ok := Get(w, e, component.VehicleProfileComponent)
	if !ok {
		return false
	}
	if _, ok := Get(w, e, component.PhysicsBodyComponent); ok {
		return true
	}

	mass := vp.Mass
	if mass <= 0 {
		mass = 1
	}
	width := c.Width
	height := c.Height
	if width <= 0 {
		width = c.Radius * 2
	}
	if height <= 0 {
		height = c.Radius * 2
	}

	// Rotation comes from the dynamics pass, not from torque.
	body := cp.NewBody(mass, math.Inf(1))
	body.SetPosition(cp.Vector{X: t.X, Y: t.Y})
	body.SetAngle(t.Rotation)

	shape := cp.NewBox(body, width, height, 0)
	shape.SetFriction(0.7)
	shape.SetElasticity(0.1)

	pw.space.AddBody(body)
	pw.space.AddShape(shape)
	pw.bodies[e] = body

	_ = Add(w, e, component.PhysicsBodyComponent, &component.PhysicsBody{Body: body, Shape: shape})
	return true
}

// Detach removes an entity's rigid body from the space.
func (pw *PhysicsWorld) Detach(w *World, e Entity) {
	body, ok := pw.bodies[e]
	if !ok {
		return
	}
	body.EachShape(func(s *cp.Shape) {
		pw.space.RemoveShape(s)
	})
	pw.space.RemoveBody(body)
	delete(pw.bodies, e)
	Remove(w, e, component.PhysicsBodyComponent)
}

// Step advances the Chipmunk space by the fixed timestep.
func (pw *PhysicsWorld) Step(dt float64) {
	pw.space.Step(dt)
}
