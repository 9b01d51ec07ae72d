// Package sim assembles the simulation: world, navigation context,
// spatial grid, and the fixed-timestep pass pipeline.
package sim

import (
	"math/rand"

	"github.com/sirupsen/logrus"

	"blockcity/citymap"
	"blockcity/ecs"
	"blockcity/ecs/system"
	"blockcity/nav"
)

// DefaultTimeStep is the fixed tick length in seconds.
const DefaultTimeStep = 1.0 / 60.0

type Config struct {
	TimeStep     float64
	GridCellSize float64
	// Physics attaches a Chipmunk space; vehicles spawned with
	// WithBody then carry rigid bodies.
	Physics bool
	Seed    int64
}

// Sim owns one simulation instance. All methods are single-threaded;
// external spawn/despawn must not happen mid-tick.
type Sim struct {
	World    *ecs.World
	Nav      *nav.Context
	Grid     *system.SpatialGrid
	Map      citymap.Map
	Surfaces *citymap.SurfaceTable

	scheduler *ecs.Scheduler
	rng       *rand.Rand
	log       *logrus.Logger
	dt        float64
	tick      uint64
}

// New builds a simulation over a map. The pass order is fixed: spatial
// grid rebuild, AI decisions, dynamics integration, movement, map
// collision, entity collision.
func New(m citymap.Map, log *logrus.Logger, cfg Config) *Sim {
	if cfg.TimeStep <= 0 {
		cfg.TimeStep = DefaultTimeStep
	}
	if log == nil {
		log = logrus.New()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	w := ecs.NewWorld()
	if cfg.Physics {
		w.SetPhysicsWorld(ecs.NewPhysicsWorld())
	}

	mapW, mapH, _ := m.Bounds()
	grid := system.NewSpatialGrid(
		float64(mapW)*citymap.BlockSize,
		float64(mapH)*citymap.BlockSize,
		cfg.GridCellSize,
	)

	navCtx := nav.NewContext(m, rng)
	surfaces := citymap.DefaultSurfaceTable()

	s := &Sim{
		World:    w,
		Nav:      navCtx,
		Grid:     grid,
		Map:      m,
		Surfaces: surfaces,
		rng:      rng,
		log:      log,
		dt:       cfg.TimeStep,
	}
	s.scheduler = ecs.NewScheduler(
		system.NewGridRebuildSystem(grid),
		system.NewPlayerControlSystem(),
		system.NewPedestrianAISystem(navCtx, log),
		system.NewTrafficAISystem(navCtx, grid, log),
		system.NewVehicleDynamicsSystem(m, surfaces),
		system.NewPhysicsStepSystem(),
		system.NewMovementSystem(),
		system.NewMapCollisionSystem(m),
		system.NewEntityCollisionSystem(grid),
	)
	return s
}

// Step advances the simulation one fixed timestep.
func (s *Sim) Step() {
	s.scheduler.Update(s.World, s.dt)
	s.tick++
}

// Run advances n ticks.
func (s *Sim) Run(n int) {
	for i := 0; i < n; i++ {
		s.Step()
	}
}

// Tick returns the tick counter.
func (s *Sim) Tick() uint64 { return s.tick }

// TimeStep returns the fixed timestep in seconds.
func (s *Sim) TimeStep() float64 { return s.dt }

// DrainEvents returns and clears the events queued during past ticks.
func (s *Sim) DrainEvents() []ecs.Event {
	return s.World.Events().Drain()
}

// Rand returns the simulation RNG.
func (s *Sim) Rand() *rand.Rand { return s.rng }
