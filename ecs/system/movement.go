package system

import (
	"math"

	"blockcity/ecs"
	"blockcity/ecs/component"
)

// PlayerControlSystem turns the desired move direction written by the
// external input layer into velocity. It runs in the AI phase; no AI
// pass ever touches the player agent.
type PlayerControlSystem struct{}

func NewPlayerControlSystem() *PlayerControlSystem {
	return &PlayerControlSystem{}
}

func (s *PlayerControlSystem) Update(w *ecs.World, dt float64) {
	ecs.ForEach2(w, component.PlayerControlledComponent, component.KinematicsComponent,
		func(e ecs.Entity, pc *component.PlayerControlled, k *component.Kinematics) {
			mag := math.Hypot(pc.MoveX, pc.MoveY)
			if mag < 1e-6 {
				k.VX, k.VY = 0, 0
				return
			}
			k.VX = pc.MoveX / mag * pc.Speed
			k.VY = pc.MoveY / mag * pc.Speed
			if t, ok := ecs.Get(w, e, component.TransformComponent); ok {
				t.Rotation = math.Atan2(k.VY, k.VX)
			}
		})
}

// PhysicsStepSystem advances the attached Chipmunk space between the
// dynamics pass and the movement pass.
type PhysicsStepSystem struct{}

func NewPhysicsStepSystem() *PhysicsStepSystem {
	return &PhysicsStepSystem{}
}

func (s *PhysicsStepSystem) Update(w *ecs.World, dt float64) {
	if pw := w.PhysicsWorld(); pw != nil {
		pw.Step(dt)
	}
}

// MovementSystem applies velocity to position. Entities with a rigid
// body instead read position, angle, and velocity back from the body
// the space just stepped, so the component view stays coherent for
// the collision passes and external readers.
type MovementSystem struct{}

func NewMovementSystem() *MovementSystem {
	return &MovementSystem{}
}

func (s *MovementSystem) Update(w *ecs.World, dt float64) {
	ecs.ForEach2(w, component.TransformComponent, component.KinematicsComponent,
		func(e ecs.Entity, t *component.Transform, k *component.Kinematics) {
			if pb, ok := ecs.Get(w, e, component.PhysicsBodyComponent); ok && pb.Body != nil {
				pos := pb.Body.Position()
				vel := pb.Body.Velocity()
				t.X, t.Y = pos.X, pos.Y
				t.Rotation = pb.Body.Angle()
				k.VX, k.VY = vel.X, vel.Y
				return
			}
			t.X += k.VX * dt
			t.Y += k.VY * dt
		})
}
