package sim

import (
	"fmt"

	"blockcity/ecs"
	"blockcity/ecs/component"
	"blockcity/ecs/system"
)

// PedestrianParams tunes a spawned pedestrian.
type PedestrianParams struct {
	WalkSpeed float64
	RunSpeed  float64
	Radius    float64
	Mass      float64
}

// DefaultPedestrian is the stock pedestrian tuning.
func DefaultPedestrian() PedestrianParams {
	return PedestrianParams{WalkSpeed: 40, RunSpeed: 90, Radius: 10, Mass: 70}
}

// VehicleParams tunes a spawned vehicle.
type VehicleParams struct {
	Profile      component.VehicleProfile
	Width        float64
	Height       float64
	DesiredSpeed float64
	Aggression   float64
	Patience     float64
	// WithBody attaches a Chipmunk rigid body when the sim has a
	// physics world.
	WithBody bool
}

// DefaultVehicle is the stock car tuning.
func DefaultVehicle() VehicleParams {
	return VehicleParams{
		Profile: component.VehicleProfile{
			Mass:         1200,
			MaxSpeed:     180,
			Acceleration: 90,
			Braking:      160,
			Handling:     2.2,
			Grip:         0.9,
		},
		Width:        36,
		Height:       20,
		DesiredSpeed: 110,
		Aggression:   0.3,
		Patience:     4,
		WithBody:     false,
	}
}

// SpawnPedestrian creates an AI pedestrian at a walkable position.
func (s *Sim) SpawnPedestrian(x, y float64, level int, p PedestrianParams) (ecs.Entity, error) {
	if !system.CanMoveTo(s.Map, x, y, level, p.Radius) {
		return 0, fmt.Errorf("sim: spawn pedestrian at (%.0f, %.0f): position blocked", x, y)
	}
	e := ecs.CreateEntity(s.World)
	must(ecs.Add(s.World, e, component.TransformComponent, &component.Transform{X: x, Y: y, Level: level}))
	must(ecs.Add(s.World, e, component.KinematicsComponent, &component.Kinematics{}))
	must(ecs.Add(s.World, e, component.ColliderComponent, &component.Collider{
		Shape:  component.ShapeCircle,
		Radius: p.Radius,
		Layer:  component.LayerPedestrian,
		Mask:   component.LayerPedestrian | component.LayerVehicle | component.LayerPlayer | component.LayerProp,
		Mass:   p.Mass,
	}))
	must(ecs.Add(s.World, e, component.PedestrianAIComponent, &component.PedestrianAI{
		State:     component.PedIdle{},
		WalkSpeed: p.WalkSpeed,
		RunSpeed:  p.RunSpeed,
	}))
	return e, nil
}

// SpawnVehicle creates an AI vehicle routed onto the nearest waypoint.
func (s *Sim) SpawnVehicle(x, y float64, level int, p VehicleParams) (ecs.Entity, error) {
	wpID, ok := s.Nav.Network.NearestWaypoint(x, y, level, 600)
	if !ok {
		return 0, fmt.Errorf("sim: spawn vehicle at (%.0f, %.0f): no waypoint in range", x, y)
	}
	e := ecs.CreateEntity(s.World)
	must(ecs.Add(s.World, e, component.TransformComponent, &component.Transform{X: x, Y: y, Level: level}))
	must(ecs.Add(s.World, e, component.KinematicsComponent, &component.Kinematics{}))
	must(ecs.Add(s.World, e, component.ColliderComponent, &component.Collider{
		Shape:  component.ShapeBox,
		Width:  p.Width,
		Height: p.Height,
		Layer:  component.LayerVehicle,
		Mask:   component.LayerPedestrian | component.LayerVehicle | component.LayerPlayer | component.LayerProp,
		Mass:   p.Profile.Mass,
	}))
	profile := p.Profile
	must(ecs.Add(s.World, e, component.VehicleProfileComponent, &profile))
	must(ecs.Add(s.World, e, component.TrafficAIComponent, &component.TrafficAI{
		State:        component.TrafficDriving{},
		Waypoint:     wpID,
		PrevWaypoint: wpID,
		DesiredSpeed: p.DesiredSpeed,
		Aggression:   p.Aggression,
		Patience:     p.Patience,
	}))
	if p.WithBody {
		if pw := s.World.PhysicsWorld(); pw != nil {
			pw.AttachVehicle(s.World, e)
		}
	}
	return e, nil
}

// SpawnPlayer creates the player-controlled agent. Input writes the
// desired move direction into the PlayerControlled component.
func (s *Sim) SpawnPlayer(x, y float64, level int, speed float64) (ecs.Entity, error) {
	e := ecs.CreateEntity(s.World)
	must(ecs.Add(s.World, e, component.TransformComponent, &component.Transform{X: x, Y: y, Level: level}))
	must(ecs.Add(s.World, e, component.KinematicsComponent, &component.Kinematics{}))
	must(ecs.Add(s.World, e, component.ColliderComponent, &component.Collider{
		Shape:  component.ShapeCircle,
		Radius: 10,
		Layer:  component.LayerPlayer,
		Mask:   component.LayerPedestrian | component.LayerVehicle | component.LayerProp,
		Mass:   70,
	}))
	must(ecs.Add(s.World, e, component.PlayerControlledComponent, &component.PlayerControlled{Speed: speed}))
	return e, nil
}

// SpawnProp creates a static box obstacle (bench, stall, parked junk).
func (s *Sim) SpawnProp(x, y float64, level int, width, height float64) (ecs.Entity, error) {
	e := ecs.CreateEntity(s.World)
	must(ecs.Add(s.World, e, component.TransformComponent, &component.Transform{X: x, Y: y, Level: level}))
	must(ecs.Add(s.World, e, component.KinematicsComponent, &component.Kinematics{}))
	must(ecs.Add(s.World, e, component.ColliderComponent, &component.Collider{
		Shape:  component.ShapeBox,
		Width:  width,
		Height: height,
		Layer:  component.LayerProp,
		Mask:   component.LayerPedestrian | component.LayerVehicle | component.LayerPlayer,
		Static: true,
		Mass:   1e6,
	}))
	return e, nil
}

// Despawn removes an agent and all its components. Must not be called
// mid-tick.
func (s *Sim) Despawn(e ecs.Entity) bool {
	if pw := s.World.PhysicsWorld(); pw != nil {
		pw.Detach(s.World, e)
	}
	return ecs.DestroyEntity(s.World, e)
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
