package component

// Shape tags the collider geometry.
type Shape uint8

const (
	ShapeCircle Shape = iota
	ShapeBox
)

// Collision layer bits.
const (
	LayerTerrain uint32 = 1 << iota
	LayerPedestrian
	LayerVehicle
	LayerPlayer
	LayerProp
)

// Collider describes an agent's collision volume and filtering.
// Two agents collide iff either one's layer intersects the other's
// mask; the pairing is symmetric by construction of the test.
type Collider struct {
	Shape  Shape
	Radius float64 // circle
	Width  float64 // box
	Height float64 // box
	Layer  uint32
	Mask   uint32
	Static bool
	Mass   float64
}

// BoundingRadius returns the circle-equivalent radius used against the
// block map. Boxes use half-width as a conservative radius.
func (c *Collider) BoundingRadius() float64 {
	if c.Shape == ShapeBox {
		return c.Width / 2
	}
	return c.Radius
}

// EffectiveMass returns the collider mass, defaulting to 1.
func (c *Collider) EffectiveMass() float64 {
	if c.Mass <= 0 {
		return 1
	}
	return c.Mass
}

// CanCollide reports whether the layer/mask bits let a and b interact.
func CanCollide(a, b *Collider) bool {
	return a.Layer&b.Mask != 0 || b.Layer&a.Mask != 0
}

var ColliderComponent = New[Collider]()
