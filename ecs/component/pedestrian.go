package component

// PedStateKind names a pedestrian FSM state, for events and logs.
type PedStateKind uint8

const (
	PedIdleKind PedStateKind = iota
	PedWalkingKind
	PedRunningKind
	PedFleeingKind
	PedDeadKind
)

func (k PedStateKind) String() string {
	switch k {
	case PedIdleKind:
		return "idle"
	case PedWalkingKind:
		return "walking"
	case PedRunningKind:
		return "running"
	case PedFleeingKind:
		return "fleeing"
	case PedDeadKind:
		return "dead"
	}
	return "unknown"
}

// PedBehavior is the closed set of pedestrian states. State-specific
// data lives only on the variant where it is valid: a target point
// exists while walking, running, or fleeing, never while idle or dead.
type PedBehavior interface {
	Kind() PedStateKind
	pedBehavior()
}

type PedIdle struct{}

type PedWalking struct {
	TargetX float64
	TargetY float64
}

type PedRunning struct {
	TargetX float64
	TargetY float64
}

type PedFleeing struct {
	TargetX   float64
	TargetY   float64
	HasTarget bool
}

// PedDead is terminal: no outgoing transitions, zero velocity forever.
type PedDead struct{}

func (PedIdle) Kind() PedStateKind    { return PedIdleKind }
func (PedWalking) Kind() PedStateKind { return PedWalkingKind }
func (PedRunning) Kind() PedStateKind { return PedRunningKind }
func (PedFleeing) Kind() PedStateKind { return PedFleeingKind }
func (PedDead) Kind() PedStateKind    { return PedDeadKind }

func (PedIdle) pedBehavior()    {}
func (PedWalking) pedBehavior() {}
func (PedRunning) pedBehavior() {}
func (PedFleeing) pedBehavior() {}
func (PedDead) pedBehavior()    {}

// PedestrianAI drives one non-player pedestrian. Fear is 0-100; the
// FSM forces fleeing above the threshold from any live state.
type PedestrianAI struct {
	State      PedBehavior
	Prev       PedStateKind
	WalkSpeed  float64
	RunSpeed   float64
	Fear       float64
	StateTimer float64
	ThinkTimer float64
}

var PedestrianAIComponent = New[PedestrianAI]()
