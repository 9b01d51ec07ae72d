package component

import "github.com/jakecoffman/cp"

// PhysicsBody attaches an optional Chipmunk2D rigid body to a vehicle.
// When present, the dynamics pass writes angle and velocity into the
// body instead of the Kinematics component, and the movement pass reads
// position back after the space steps.
type PhysicsBody struct {
	Body  *cp.Body
	Shape *cp.Shape
}

var PhysicsBodyComponent = New[PhysicsBody]()
