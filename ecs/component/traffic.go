package component

// TrafficStateKind names a traffic FSM state, for events and logs.
type TrafficStateKind uint8

const (
	TrafficDrivingKind TrafficStateKind = iota
	TrafficStoppedKind
	TrafficWaitingKind
	TrafficTurningKind
	TrafficCrashedKind
	TrafficFleeingKind
)

func (k TrafficStateKind) String() string {
	switch k {
	case TrafficDrivingKind:
		return "driving"
	case TrafficStoppedKind:
		return "stopped"
	case TrafficWaitingKind:
		return "waiting"
	case TrafficTurningKind:
		return "turning"
	case TrafficCrashedKind:
		return "crashed"
	case TrafficFleeingKind:
		return "fleeing"
	}
	return "unknown"
}

// TrafficBehavior is the closed set of traffic states.
type TrafficBehavior interface {
	Kind() TrafficStateKind
	trafficBehavior()
}

// TrafficDriving is the default open-ended state.
type TrafficDriving struct{}

// TrafficStopped waits at a red traffic light on a waypoint.
type TrafficStopped struct {
	WaypointID int
}

// TrafficWaiting is blocked behind an obstacle with a patience timer.
type TrafficWaiting struct {
	Patience float64
}

// TrafficTurning crosses an intersection toward the next waypoint.
type TrafficTurning struct{}

type TrafficCrashed struct{}

// TrafficFleeing races along the graph ignoring lights until the panic
// timer runs out.
type TrafficFleeing struct{}

func (TrafficDriving) Kind() TrafficStateKind { return TrafficDrivingKind }
func (TrafficStopped) Kind() TrafficStateKind { return TrafficStoppedKind }
func (TrafficWaiting) Kind() TrafficStateKind { return TrafficWaitingKind }
func (TrafficTurning) Kind() TrafficStateKind { return TrafficTurningKind }
func (TrafficCrashed) Kind() TrafficStateKind { return TrafficCrashedKind }
func (TrafficFleeing) Kind() TrafficStateKind { return TrafficFleeingKind }

func (TrafficDriving) trafficBehavior() {}
func (TrafficStopped) trafficBehavior() {}
func (TrafficWaiting) trafficBehavior() {}
func (TrafficTurning) trafficBehavior() {}
func (TrafficCrashed) trafficBehavior() {}
func (TrafficFleeing) trafficBehavior() {}

// TrafficAI drives one AI vehicle over the waypoint graph.
// Aggressiveness is 0-1; impatient (aggressive) agents re-arm shorter
// wait timers when patience expires. Overtaking is not implemented.
type TrafficAI struct {
	State        TrafficBehavior
	Prev         TrafficStateKind
	Waypoint     int // current target waypoint id
	PrevWaypoint int
	DesiredSpeed float64
	Aggression   float64
	Patience     float64
	Obstacle     bool
	StateTimer   float64
}

var TrafficAIComponent = New[TrafficAI]()
