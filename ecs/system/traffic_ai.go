package system

import (
	"math"

	"github.com/sirupsen/logrus"

	"blockcity/ecs"
	"blockcity/ecs/component"
	"blockcity/nav"
)

const (
	// Obstacle probe: look-ahead grows with speed, hit radius fixed.
	obstacleLookAheadBase  = 40.0
	obstacleLookAheadScale = 0.35
	obstacleRadius         = 28.0

	// Arrival radius scales with current speed so fast vehicles do not
	// orbit their waypoint.
	trafficArrivalBase  = 14.0
	trafficArrivalScale = 0.15

	steerGain        = 1.6
	turningThrottle  = 0.45
	rerouteMaxDist   = 600.0
	headingErrorStop = math.Pi / 2

	// AggressionRearmFactor shortens the re-armed wait for impatient
	// agents when patience expires. They still only wait; overtaking
	// is not implemented.
	AggressionRearmFactor = 0.5
)

// TrafficTimerRules maps every traffic state to its timer rule.
// Driving is open-ended; Stopped is light-driven; Waiting overrides
// the rule with the agent's randomized patience.
var TrafficTimerRules = map[component.TrafficStateKind]TimerRange{
	component.TrafficDrivingKind: {},
	component.TrafficStoppedKind: {},
	component.TrafficWaitingKind: {Min: 1, Max: 4},
	component.TrafficTurningKind: {Min: 1, Max: 3},
	component.TrafficCrashedKind: {Min: 4, Max: 8},
	component.TrafficFleeingKind: {Min: 3, Max: 6},
}

// TrafficAISystem drives AI vehicles over the waypoint graph. It
// writes throttle and steering into the VehicleProfile; the dynamics
// pass integrates them.
type TrafficAISystem struct {
	nav   *nav.Context
	grid  *SpatialGrid
	log   *logrus.Entry
	clock float64
}

func NewTrafficAISystem(navCtx *nav.Context, grid *SpatialGrid, log *logrus.Logger) *TrafficAISystem {
	return &TrafficAISystem{
		nav:  navCtx,
		grid: grid,
		log:  log.WithField("system", "traffic_ai"),
	}
}

// Clock returns the tick-driven simulation time used for light phases.
func (s *TrafficAISystem) Clock() float64 { return s.clock }

func (s *TrafficAISystem) Update(w *ecs.World, dt float64) {
	s.clock += dt
	ecs.ForEach(w, component.TrafficAIComponent, func(e ecs.Entity, ai *component.TrafficAI) {
		t, ok := ecs.Get(w, e, component.TransformComponent)
		if !ok {
			s.skip(w, e, "missing transform")
			return
		}
		vp, ok := ecs.Get(w, e, component.VehicleProfileComponent)
		if !ok {
			s.skip(w, e, "missing vehicle profile")
			return
		}
		s.updateOne(w, e, ai, t, vp, dt)
	})
}

func (s *TrafficAISystem) updateOne(w *ecs.World, e ecs.Entity, ai *component.TrafficAI, t *component.Transform, vp *component.VehicleProfile, dt float64) {
	if ai.State == nil {
		ai.State = component.TrafficDriving{}
	}
	ai.StateTimer -= dt

	wp, ok := s.nav.Network.Get(ai.Waypoint)
	if !ok {
		// Unknown waypoint id: re-route to the nearest node or idle.
		id, found := s.nav.Network.NearestWaypoint(t.X, t.Y, t.Level, rerouteMaxDist)
		if !found {
			vp.Throttle, vp.Steering = 0, 0
			s.skip(w, e, "no waypoint in range")
			return
		}
		ai.Waypoint = id
		ai.PrevWaypoint = id
		wp, _ = s.nav.Network.Get(id)
	}

	obstacle := s.probeObstacle(e, t, vp)
	rising := obstacle && !ai.Obstacle
	ai.Obstacle = obstacle

	switch ai.State.(type) {
	case component.TrafficDriving:
		if rising {
			s.enterWaiting(w, e, ai, vp)
			return
		}
		s.steerToward(t, vp, wp, ai, obstacle)
		if s.arrived(t, vp, wp) {
			s.advance(w, e, ai, t, vp, wp)
		}

	case component.TrafficStopped:
		holdBrake(vp)
		if wp.Light == nil || !wp.Light.IsRed(s.clock) {
			s.transition(w, e, ai, component.TrafficDriving{})
		}

	case component.TrafficWaiting:
		holdBrake(vp)
		if !obstacle {
			s.transition(w, e, ai, component.TrafficDriving{})
			return
		}
		if ai.StateTimer <= 0 {
			// Patience expired: impatient agents just re-arm a shorter
			// wait. Overtaking is intentionally not implemented.
			ai.StateTimer = math.Max(0.5, ai.Patience*AggressionRearmFactor)
		}

	case component.TrafficTurning:
		s.steerToward(t, vp, wp, ai, obstacle)
		vp.Throttle = math.Min(vp.Throttle, turningThrottle)
		err := s.headingError(t, wp)
		if math.Abs(err) < 0.2 || ai.StateTimer <= 0 {
			s.transition(w, e, ai, component.TrafficDriving{})
		}
		if s.arrived(t, vp, wp) {
			s.advance(w, e, ai, t, vp, wp)
		}

	case component.TrafficCrashed:
		vp.Throttle = 0
		vp.Steering = 0
		if ai.StateTimer <= 0 {
			s.transition(w, e, ai, component.TrafficDriving{})
		}

	case component.TrafficFleeing:
		// Flee along the graph at full throttle, ignoring lights.
		s.steerToward(t, vp, wp, ai, false)
		vp.Throttle = 1
		if s.arrived(t, vp, wp) {
			s.advance(w, e, ai, t, vp, wp)
		}
		if ai.StateTimer <= 0 {
			s.transition(w, e, ai, component.TrafficDriving{})
		}
	}
}

func (s *TrafficAISystem) probeObstacle(e ecs.Entity, t *component.Transform, vp *component.VehicleProfile) bool {
	ahead := obstacleLookAheadBase + math.Abs(vp.Speed)*obstacleLookAheadScale
	px := t.X + math.Cos(t.Rotation)*ahead
	py := t.Y + math.Sin(t.Rotation)*ahead
	return s.grid.VehicleWithin(px, py, t.Level, obstacleRadius, e)
}

func (s *TrafficAISystem) headingError(t *component.Transform, wp *nav.Waypoint) float64 {
	target := math.Atan2(wp.Y-t.Y, wp.X-t.X)
	return normalizeAngle(target - t.Rotation)
}

// steerToward writes steering proportional to heading error (clamped)
// and throttles down when the error exceeds 90 degrees or an obstacle
// is flagged.
func (s *TrafficAISystem) steerToward(t *component.Transform, vp *component.VehicleProfile, wp *nav.Waypoint, ai *component.TrafficAI, obstacle bool) {
	err := s.headingError(t, wp)
	vp.Steering = clamp(err*steerGain, -1, 1)

	desired := ai.DesiredSpeed
	if wp.SpeedLimit > 0 && wp.SpeedLimit < desired {
		desired = wp.SpeedLimit
	}
	switch {
	case obstacle:
		vp.Throttle = -0.5
	case math.Abs(err) > headingErrorStop:
		vp.Throttle = 0.15
	case vp.Speed < desired:
		vp.Throttle = 1
	default:
		vp.Throttle = 0
	}
}

func (s *TrafficAISystem) arrived(t *component.Transform, vp *component.VehicleProfile, wp *nav.Waypoint) bool {
	radius := trafficArrivalBase + math.Abs(vp.Speed)*trafficArrivalScale
	dx := wp.X - t.X
	dy := wp.Y - t.Y
	return dx*dx+dy*dy <= radius*radius
}

// advance reroutes to the next graph waypoint. Reaching an
// intersection enters Turning, or Stopped first when its light is red.
func (s *TrafficAISystem) advance(w *ecs.World, e ecs.Entity, ai *component.TrafficAI, t *component.Transform, vp *component.VehicleProfile, reached *nav.Waypoint) {
	if reached.Intersection && reached.Light != nil && reached.Light.IsRed(s.clock) {
		if _, stopped := ai.State.(component.TrafficStopped); !stopped {
			s.transition(w, e, ai, component.TrafficStopped{WaypointID: reached.ID})
			holdBrake(vp)
			return
		}
	}

	next, ok := s.nav.Network.NextWaypoint(ai.Waypoint, ai.PrevWaypoint, s.nav.Rand)
	if !ok {
		vp.Throttle = 0
		s.skip(w, e, "dead-end waypoint")
		return
	}
	ai.PrevWaypoint = ai.Waypoint
	ai.Waypoint = next

	if reached.Intersection {
		if _, turning := ai.State.(component.TrafficTurning); !turning {
			s.transition(w, e, ai, component.TrafficTurning{})
		}
	}
}

func (s *TrafficAISystem) enterWaiting(w *ecs.World, e ecs.Entity, ai *component.TrafficAI, vp *component.VehicleProfile) {
	s.transition(w, e, ai, component.TrafficWaiting{Patience: ai.Patience})
	// Randomized patience, shortened for aggressive agents.
	rule := TrafficTimerRules[component.TrafficWaitingKind]
	base := rule.Min + s.nav.Rand.Float64()*(rule.Max-rule.Min)
	if ai.Patience > 0 {
		base = ai.Patience * (0.5 + s.nav.Rand.Float64())
	}
	ai.StateTimer = base * (1 - 0.5*clamp(ai.Aggression, 0, 1))
	holdBrake(vp)
}

// holdBrake brakes a moving vehicle and releases the pedal once it has
// stopped. The dynamics pass reads negative throttle at zero forward
// speed as reverse gear, so a held vehicle must not keep it applied.
func holdBrake(vp *component.VehicleProfile) {
	if vp.Speed > 1 {
		vp.Throttle = -1
	} else {
		vp.Throttle = 0
	}
	vp.Steering = 0
}

func (s *TrafficAISystem) transition(w *ecs.World, e ecs.Entity, ai *component.TrafficAI, to component.TrafficBehavior) {
	from := component.TrafficDrivingKind
	if ai.State != nil {
		from = ai.State.Kind()
	}
	ai.Prev = from
	ai.State = to
	rule := TrafficTimerRules[to.Kind()]
	ai.StateTimer = rule.Min + s.nav.Rand.Float64()*(rule.Max-rule.Min)
	w.Events().Push(ecs.TrafficStateEvent{Entity: e, From: from, To: to.Kind()})
}

func (s *TrafficAISystem) skip(w *ecs.World, e ecs.Entity, reason string) {
	s.log.WithField("entity", e).Debug(reason)
	w.Events().Push(ecs.AgentSkippedEvent{Entity: e, Pass: "traffic_ai", Reason: reason})
}

// CrashVehicle forces a vehicle into the crashed state, typically on a
// high-impact collision.
func CrashVehicle(w *ecs.World, e ecs.Entity, rng interface{ Float64() float64 }) bool {
	ai, ok := ecs.Get(w, e, component.TrafficAIComponent)
	if !ok {
		return false
	}
	from := component.TrafficDrivingKind
	if ai.State != nil {
		from = ai.State.Kind()
	}
	ai.Prev = from
	ai.State = component.TrafficCrashed{}
	rule := TrafficTimerRules[component.TrafficCrashedKind]
	ai.StateTimer = rule.Min + rng.Float64()*(rule.Max-rule.Min)
	if vp, ok := ecs.Get(w, e, component.VehicleProfileComponent); ok {
		vp.Throttle = 0
		vp.Steering = 0
	}
	w.Events().Push(ecs.TrafficStateEvent{Entity: e, From: from, To: component.TrafficCrashedKind})
	return true
}

// FrightenVehicle sends a vehicle fleeing along the graph at full
// throttle, ignoring lights, typically when panic spreads from a
// nearby crash.
func FrightenVehicle(w *ecs.World, e ecs.Entity, rng interface{ Float64() float64 }) bool {
	ai, ok := ecs.Get(w, e, component.TrafficAIComponent)
	if !ok {
		return false
	}
	from := component.TrafficDrivingKind
	if ai.State != nil {
		from = ai.State.Kind()
	}
	ai.Prev = from
	ai.State = component.TrafficFleeing{}
	rule := TrafficTimerRules[component.TrafficFleeingKind]
	ai.StateTimer = rule.Min + rng.Float64()*(rule.Max-rule.Min)
	w.Events().Push(ecs.TrafficStateEvent{Entity: e, From: from, To: component.TrafficFleeingKind})
	return true
}

func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
