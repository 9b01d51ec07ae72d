package component

// Transform is an agent's position, world level, and heading.
// Level is always a valid world level index.
type Transform struct {
	X        float64
	Y        float64
	Level    int
	Rotation float64
}

// Kinematics is an agent's velocity. It is written by the AI passes,
// vehicle dynamics, and collision response; never by rendering.
type Kinematics struct {
	VX float64
	VY float64
}

var TransformComponent = New[Transform]()
var KinematicsComponent = New[Kinematics]()
