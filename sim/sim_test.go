package sim

import (
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"

	"blockcity/citymap"
	"blockcity/ecs"
	"blockcity/ecs/component"
	"blockcity/ecs/system"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// townMap is 12x12 grass with a road row at y=5.
func townMap() *citymap.GridMap {
	g := citymap.NewGridMap(12, 12, 1)
	for by := 0; by < 12; by++ {
		for bx := 0; bx < 12; bx++ {
			g.SetBlock(bx, by, 0, citymap.Grass)
		}
	}
	for bx := 0; bx < 12; bx++ {
		g.SetBlock(bx, 5, 0, citymap.Road)
	}
	g.SetBlock(0, 0, 0, citymap.Wall)
	return g
}

func newTestSim(t *testing.T) *Sim {
	t.Helper()
	return New(townMap(), testLogger(), Config{Seed: 1})
}

func TestNewBuildsNavigation(t *testing.T) {
	s := newTestSim(t)
	if s.Nav.Network.Len() != 12 {
		t.Fatalf("road row should yield 12 waypoints, got %d", s.Nav.Network.Len())
	}
	if s.TimeStep() != DefaultTimeStep {
		t.Fatalf("timestep %v, want default", s.TimeStep())
	}
}

func TestStepAndRunAdvanceTicks(t *testing.T) {
	s := newTestSim(t)
	s.Step()
	if s.Tick() != 1 {
		t.Fatalf("tick %d after one step", s.Tick())
	}
	s.Run(9)
	if s.Tick() != 10 {
		t.Fatalf("tick %d after Run(9)", s.Tick())
	}
}

func TestSpawnPedestrian(t *testing.T) {
	s := newTestSim(t)

	e, err := s.SpawnPedestrian(200, 300, 0, DefaultPedestrian())
	if err != nil {
		t.Fatalf("spawn on open grass: %v", err)
	}
	if !ecs.IsAlive(s.World, e) {
		t.Fatal("spawned pedestrian not alive")
	}
	ai, ok := ecs.Get(s.World, e, component.PedestrianAIComponent)
	if !ok {
		t.Fatal("pedestrian missing AI component")
	}
	if _, idle := ai.State.(component.PedIdle); !idle {
		t.Fatalf("pedestrians spawn idle, state is %T", ai.State)
	}
}

func TestSpawnPedestrianRejectsBlocked(t *testing.T) {
	s := newTestSim(t)

	// Center of the wall block at (0,0).
	if _, err := s.SpawnPedestrian(16, 16, 0, DefaultPedestrian()); err == nil {
		t.Fatal("spawning inside a wall should fail")
	}
}

func TestSpawnVehicleRoutesToWaypoint(t *testing.T) {
	s := newTestSim(t)

	// Near the road row.
	e, err := s.SpawnVehicle(100, 170, 0, DefaultVehicle())
	if err != nil {
		t.Fatalf("spawn near road: %v", err)
	}
	ai, ok := ecs.Get(s.World, e, component.TrafficAIComponent)
	if !ok {
		t.Fatal("vehicle missing traffic AI")
	}
	if _, ok := s.Nav.Network.Get(ai.Waypoint); !ok {
		t.Fatalf("vehicle routed to unknown waypoint %d", ai.Waypoint)
	}
}

func TestSpawnVehicleRequiresWaypointInRange(t *testing.T) {
	g := citymap.NewGridMap(4, 4, 1)
	s := New(g, testLogger(), Config{Seed: 1})

	if _, err := s.SpawnVehicle(64, 64, 0, DefaultVehicle()); err == nil {
		t.Fatal("spawning with no road network should fail")
	}
}

func TestPedestrianWandersOverTime(t *testing.T) {
	s := newTestSim(t)

	e, err := s.SpawnPedestrian(200, 300, 0, DefaultPedestrian())
	if err != nil {
		t.Fatal(err)
	}

	s.Run(1200) // 20 simulated seconds

	tr, _ := ecs.Get(s.World, e, component.TransformComponent)
	if math.Hypot(tr.X-200, tr.Y-300) < 1 {
		t.Fatal("pedestrian never left its spawn point in 20s")
	}
}

func TestDeterministicRuns(t *testing.T) {
	positions := func() (float64, float64) {
		s := New(townMap(), testLogger(), Config{Seed: 42})
		e, err := s.SpawnPedestrian(200, 300, 0, DefaultPedestrian())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.SpawnVehicle(100, 170, 0, DefaultVehicle()); err != nil {
			t.Fatal(err)
		}
		s.Run(600)
		tr, _ := ecs.Get(s.World, e, component.TransformComponent)
		return tr.X, tr.Y
	}

	x1, y1 := positions()
	x2, y2 := positions()
	if x1 != x2 || y1 != y2 {
		t.Fatalf("same seed diverged: (%v,%v) vs (%v,%v)", x1, y1, x2, y2)
	}
}

func TestDrainEvents(t *testing.T) {
	s := newTestSim(t)

	e, err := s.SpawnPedestrian(200, 300, 0, DefaultPedestrian())
	if err != nil {
		t.Fatal(err)
	}
	if !system.Kill(s.World, e) {
		t.Fatal("Kill failed")
	}

	events := s.DrainEvents()
	if len(events) == 0 {
		t.Fatal("expected the kill transition event")
	}
	if got := s.DrainEvents(); got != nil {
		t.Fatalf("second drain should be empty, got %v", got)
	}
}

func TestDespawnRemovesAgent(t *testing.T) {
	s := newTestSim(t)

	e, err := s.SpawnPedestrian(200, 300, 0, DefaultPedestrian())
	if err != nil {
		t.Fatal(err)
	}
	if !s.Despawn(e) {
		t.Fatal("despawn returned false for a live agent")
	}
	if ecs.IsAlive(s.World, e) {
		t.Fatal("agent alive after despawn")
	}
	if s.Despawn(e) {
		t.Fatal("double despawn should return false")
	}
}

func TestPlayerControlMovesPlayer(t *testing.T) {
	s := newTestSim(t)

	e, err := s.SpawnPlayer(200, 300, 0, 90)
	if err != nil {
		t.Fatal(err)
	}
	pc, _ := ecs.Get(s.World, e, component.PlayerControlledComponent)
	pc.MoveX = 1

	s.Run(60) // one second east

	tr, _ := ecs.Get(s.World, e, component.TransformComponent)
	if tr.X <= 200 {
		t.Fatalf("player did not move east: x=%v", tr.X)
	}
	if math.Abs(tr.Y-300) > 1e-6 {
		t.Fatalf("player drifted on y: %v", tr.Y)
	}
}
