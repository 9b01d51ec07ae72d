package system

import (
	"math"

	"github.com/sirupsen/logrus"

	"blockcity/ecs"
	"blockcity/ecs/component"
	"blockcity/nav"
)

const (
	// FearThreshold forces fleeing from any live state.
	FearThreshold = 50.0
	// FearDecayPerSecond is the continuous fear decay rate.
	FearDecayPerSecond = 4.0
	// PedArrivalRadius is the distance at which a target counts as
	// reached.
	PedArrivalRadius = 10.0
	// FleeDistance is how far a flee target is placed.
	FleeDistance = 150.0
	// WanderRadius bounds idle target selection.
	WanderRadius = 200.0

	wanderAttempts = 12
	runFearLevel   = 25.0
)

// TimerRange is the randomized state-timer rule assigned on entry.
type TimerRange struct {
	Min float64
	Max float64
}

// PedTimerRules maps every pedestrian state to its timer rule. Dead is
// terminal and gets a zero rule.
var PedTimerRules = map[component.PedStateKind]TimerRange{
	component.PedIdleKind:    {Min: 2, Max: 5},
	component.PedWalkingKind: {Min: 10, Max: 20},
	component.PedRunningKind: {Min: 5, Max: 12},
	component.PedFleeingKind: {Min: 3, Max: 6},
	component.PedDeadKind:    {},
}

// PedestrianAISystem drives the pedestrian finite state machine. It
// writes desired velocity into Kinematics; dynamics and collision
// passes later in the tick own position.
type PedestrianAISystem struct {
	nav *nav.Context
	log *logrus.Entry
}

func NewPedestrianAISystem(navCtx *nav.Context, log *logrus.Logger) *PedestrianAISystem {
	return &PedestrianAISystem{
		nav: navCtx,
		log: log.WithField("system", "pedestrian_ai"),
	}
}

func (s *PedestrianAISystem) Update(w *ecs.World, dt float64) {
	ecs.ForEach(w, component.PedestrianAIComponent, func(e ecs.Entity, ai *component.PedestrianAI) {
		t, ok := ecs.Get(w, e, component.TransformComponent)
		if !ok {
			s.skip(w, e, "missing transform")
			return
		}
		k, ok := ecs.Get(w, e, component.KinematicsComponent)
		if !ok {
			s.skip(w, e, "missing kinematics")
			return
		}
		s.updateOne(w, e, ai, t, k, dt)
	})
}

func (s *PedestrianAISystem) updateOne(w *ecs.World, e ecs.Entity, ai *component.PedestrianAI, t *component.Transform, k *component.Kinematics, dt float64) {
	if ai.State == nil {
		ai.State = component.PedIdle{}
	}

	ai.Fear = math.Max(0, ai.Fear-FearDecayPerSecond*dt)
	ai.StateTimer -= dt

	// High fear preempts every live state.
	if ai.Fear >= FearThreshold {
		switch ai.State.(type) {
		case component.PedFleeing, component.PedDead:
		default:
			s.transition(w, e, ai, component.PedFleeing{})
		}
	}

	switch st := ai.State.(type) {
	case component.PedDead:
		k.VX, k.VY = 0, 0

	case component.PedIdle:
		k.VX, k.VY = 0, 0
		if ai.StateTimer > 0 {
			return
		}
		target, ok := s.nav.Pathfinder.NearestWalkableRandom(t.X, t.Y, t.Level, WanderRadius, wanderAttempts)
		if !ok {
			// No walkable target nearby; stay idle and try again.
			s.stampTimer(ai, component.PedIdleKind)
			return
		}
		if ai.Fear > runFearLevel {
			s.transition(w, e, ai, component.PedRunning{TargetX: target.X, TargetY: target.Y})
		} else {
			s.transition(w, e, ai, component.PedWalking{TargetX: target.X, TargetY: target.Y})
		}

	case component.PedWalking:
		if s.arrive(t, k, st.TargetX, st.TargetY, ai.WalkSpeed) || ai.StateTimer <= 0 {
			s.transition(w, e, ai, component.PedIdle{})
		}

	case component.PedRunning:
		if s.arrive(t, k, st.TargetX, st.TargetY, ai.RunSpeed) || ai.StateTimer <= 0 {
			s.transition(w, e, ai, component.PedIdle{})
		}

	case component.PedFleeing:
		if !st.HasTarget || ai.StateTimer <= 0 {
			fleeing := s.pickFleeTarget(t)
			ai.State = fleeing
			s.stampTimer(ai, component.PedFleeingKind)
			st = fleeing
		}
		arrived := s.arrive(t, k, st.TargetX, st.TargetY, ai.RunSpeed)
		if arrived && ai.Fear < FearThreshold {
			s.transition(w, e, ai, component.PedIdle{})
		}
	}
}

// arrive steers toward the target at speed and reports whether the
// agent is within the arrival radius.
func (s *PedestrianAISystem) arrive(t *component.Transform, k *component.Kinematics, tx, ty, speed float64) bool {
	dx := tx - t.X
	dy := ty - t.Y
	dist := math.Hypot(dx, dy)
	if dist <= PedArrivalRadius {
		k.VX, k.VY = 0, 0
		return true
	}
	k.VX = dx / dist * speed
	k.VY = dy / dist * speed
	t.Rotation = math.Atan2(dy, dx)
	return false
}

// pickFleeTarget places a target at a fixed distance in a random
// direction, preferring a walkable point when one can be found.
func (s *PedestrianAISystem) pickFleeTarget(t *component.Transform) component.PedFleeing {
	ang := s.nav.Rand.Float64() * 2 * math.Pi
	tx := t.X + math.Cos(ang)*FleeDistance
	ty := t.Y + math.Sin(ang)*FleeDistance
	if !s.nav.Pathfinder.IsWalkable(tx, ty, t.Level) {
		if p, ok := s.nav.Pathfinder.NearestWalkableRing(tx, ty, t.Level, FleeDistance/2); ok {
			tx, ty = p.X, p.Y
		}
	}
	return component.PedFleeing{TargetX: tx, TargetY: ty, HasTarget: true}
}

func (s *PedestrianAISystem) stampTimer(ai *component.PedestrianAI, kind component.PedStateKind) {
	rule := PedTimerRules[kind]
	ai.StateTimer = rule.Min + s.nav.Rand.Float64()*(rule.Max-rule.Min)
}

func (s *PedestrianAISystem) transition(w *ecs.World, e ecs.Entity, ai *component.PedestrianAI, to component.PedBehavior) {
	from := ai.State.Kind()
	if from == component.PedDeadKind {
		return // terminal
	}
	ai.Prev = from
	ai.State = to
	s.stampTimer(ai, to.Kind())
	w.Events().Push(ecs.PedestrianStateEvent{Entity: e, From: from, To: to.Kind()})
}

func (s *PedestrianAISystem) skip(w *ecs.World, e ecs.Entity, reason string) {
	s.log.WithField("entity", e).Debug(reason)
	w.Events().Push(ecs.AgentSkippedEvent{Entity: e, Pass: "pedestrian_ai", Reason: reason})
}

// Kill puts a pedestrian into the terminal dead state.
func Kill(w *ecs.World, e ecs.Entity) bool {
	ai, ok := ecs.Get(w, e, component.PedestrianAIComponent)
	if !ok {
		return false
	}
	from := component.PedIdleKind
	if ai.State != nil {
		from = ai.State.Kind()
	}
	if from == component.PedDeadKind {
		return true
	}
	ai.Prev = from
	ai.State = component.PedDead{}
	ai.StateTimer = 0
	if k, ok := ecs.Get(w, e, component.KinematicsComponent); ok {
		k.VX, k.VY = 0, 0
	}
	w.Events().Push(ecs.PedestrianStateEvent{Entity: e, From: from, To: component.PedDeadKind})
	return true
}
