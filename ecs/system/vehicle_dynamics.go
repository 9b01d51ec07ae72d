package system

import (
	"math"

	"blockcity/citymap"
	"blockcity/ecs"
	"blockcity/ecs/component"
)

const (
	// AirResistance is the velocity-proportional drag coefficient.
	AirResistance = 0.4
	// RollingFriction is the base deceleration on any surface; the
	// surface modifier adds to it.
	RollingFriction = 6.0
	// ReverseAccelFactor weakens reverse gear relative to forward.
	ReverseAccelFactor = 0.4
	// ReverseSpeedFactor caps reverse speed at a fraction of max.
	ReverseSpeedFactor = 0.3
	// SteeringSpeedRef: steering authority ramps up to full over this
	// speed, so vehicles cannot pivot while stationary.
	SteeringSpeedRef = 100.0
	// LateralDecayRate scales how fast grip bleeds sideways velocity.
	LateralDecayRate = 6.0
	// DriftThreshold is the residual lateral speed that flags a drift.
	DriftThreshold = 25.0
)

// VehicleDynamicsSystem integrates throttle, steering, grip, and
// surface modifiers into vehicle velocity and heading. Output goes to
// the attached Chipmunk body when one exists, otherwise straight into
// the Kinematics component; the model is physics-engine-agnostic at
// that boundary.
type VehicleDynamicsSystem struct {
	m        citymap.Map
	surfaces *citymap.SurfaceTable
}

func NewVehicleDynamicsSystem(m citymap.Map, surfaces *citymap.SurfaceTable) *VehicleDynamicsSystem {
	return &VehicleDynamicsSystem{m: m, surfaces: surfaces}
}

func (s *VehicleDynamicsSystem) Update(w *ecs.World, dt float64) {
	ecs.ForEach3(w, component.VehicleProfileComponent, component.TransformComponent, component.KinematicsComponent,
		func(e ecs.Entity, vp *component.VehicleProfile, t *component.Transform, k *component.Kinematics) {
			body, _ := ecs.Get(w, e, component.PhysicsBodyComponent)
			s.integrate(vp, t, k, body, dt)
		})
}

func (s *VehicleDynamicsSystem) integrate(vp *component.VehicleProfile, t *component.Transform, k *component.Kinematics, pb *component.PhysicsBody, dt float64) {
	// Vehicles cross surfaces continuously; look the block up fresh
	// every tick.
	surf := s.surfaces.For(citymap.BlockAtWorld(s.m, t.X, t.Y, t.Level).Surface)

	vx, vy := k.VX, k.VY
	if pb != nil && pb.Body != nil {
		v := pb.Body.Velocity()
		vx, vy = v.X, v.Y
		t.Rotation = pb.Body.Angle()
	}

	fx, fy := math.Cos(t.Rotation), math.Sin(t.Rotation)
	forward := vx*fx + vy*fy
	latX := vx - fx*forward
	latY := vy - fy*forward
	vp.Speed = forward

	// Longitudinal acceleration.
	var accel float64
	switch {
	case vp.Throttle > 0:
		accel = vp.Acceleration * vp.Throttle
	case vp.Throttle < 0 && vp.Speed > 0:
		accel = -vp.Braking
	case vp.Throttle < 0:
		accel = vp.Acceleration * ReverseAccelFactor * vp.Throttle
	}

	speed := vp.Speed + accel*dt
	speed -= speed * AirResistance * dt
	friction := (RollingFriction + surf.Friction) * dt
	if speed > 0 {
		speed = math.Max(0, speed-friction)
	} else if speed < 0 {
		speed = math.Min(0, speed+friction)
	}

	maxFwd := vp.MaxSpeed * surf.SpeedFactor
	speed = clamp(speed, -ReverseSpeedFactor*maxFwd, maxFwd)
	vp.Speed = speed

	// Steering authority scales with speed; reverse flips the sign.
	authority := math.Min(math.Abs(speed)/SteeringSpeedRef, 1)
	turnRate := vp.Handling * vp.Steering * authority
	if speed < 0 {
		turnRate = -turnRate
	}
	vp.AngularVelocity = turnRate
	t.Rotation += turnRate * dt
	fx, fy = math.Cos(t.Rotation), math.Sin(t.Rotation)

	// Low effective grip lets lateral speed persist: drift.
	decay := math.Max(0, 1-vp.Grip*surf.Grip*LateralDecayRate*dt)
	latX *= decay
	latY *= decay
	vp.Drifting = math.Hypot(latX, latY) > DriftThreshold

	nvx := fx*speed + latX
	nvy := fy*speed + latY

	if pb != nil && pb.Body != nil {
		pb.Body.SetAngle(t.Rotation)
		pb.Body.SetVelocity(nvx, nvy)
		return
	}
	k.VX, k.VY = nvx, nvy
}
