package component

// VehicleProfile is the per-vehicle dynamics state. Owned exclusively
// by vehicle agents. Throttle and Steering are the AI (or player)
// inputs in [-1, 1]; Speed and AngularVelocity are outputs of the
// dynamics pass.
type VehicleProfile struct {
	Mass         float64
	MaxSpeed     float64
	Acceleration float64
	Braking      float64
	Handling     float64
	Grip         float64

	Throttle        float64
	Steering        float64
	Speed           float64
	AngularVelocity float64
	Drifting        bool
}

var VehicleProfileComponent = New[VehicleProfile]()

// PlayerControlled marks the player agent and carries the desired move
// direction written by the (external) input layer. No AI pass touches
// entities with this component.
type PlayerControlled struct {
	MoveX float64
	MoveY float64
	Speed float64
}

var PlayerControlledComponent = New[PlayerControlled]()
