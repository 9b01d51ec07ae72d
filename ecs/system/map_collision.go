package system

import (
	"math"

	"github.com/jakecoffman/cp"

	"blockcity/citymap"
	"blockcity/ecs"
	"blockcity/ecs/component"
)

const (
	// MinPenetration is the anti-jitter threshold: shallower contacts
	// get no response at all.
	MinPenetration = 0.05
	// MapCorrectionFactor scales the positional push-out.
	MapCorrectionFactor = 0.8
	// MapSlideFriction scales tangential velocity after a wall hit.
	// The normal component is removed entirely, not dampened; that is
	// what keeps agents from sticking or jittering against walls.
	MapSlideFriction = 0.9
)

// MapCollisionSystem resolves agents against statically solid blocks
// after movement has updated positions.
type MapCollisionSystem struct {
	m citymap.Map
}

func NewMapCollisionSystem(m citymap.Map) *MapCollisionSystem {
	return &MapCollisionSystem{m: m}
}

func (s *MapCollisionSystem) Update(w *ecs.World, dt float64) {
	ecs.ForEach3(w, component.ColliderComponent, component.TransformComponent, component.KinematicsComponent,
		func(e ecs.Entity, c *component.Collider, t *component.Transform, k *component.Kinematics) {
			if c.Static {
				return
			}
			s.resolveOne(w, e, c, t, k)
		})
}

type mapContact struct {
	nx, ny      float64
	penetration float64
}

func (s *MapCollisionSystem) resolveOne(w *ecs.World, e ecs.Entity, c *component.Collider, t *component.Transform, k *component.Kinematics) {
	radius := c.BoundingRadius()
	contact, hit := firstSolidContact(s.m, t.X, t.Y, t.Level, radius)
	if !hit || contact.penetration < MinPenetration {
		return
	}

	t.X += contact.nx * contact.penetration * MapCorrectionFactor
	t.Y += contact.ny * contact.penetration * MapCorrectionFactor

	// Remove the wall-ward velocity component entirely, then damp the
	// remaining slide.
	vn := k.VX*contact.nx + k.VY*contact.ny
	impact := 0.0
	if vn < 0 {
		k.VX -= vn * contact.nx
		k.VY -= vn * contact.ny
		impact = -vn
	}
	k.VX *= MapSlideFriction
	k.VY *= MapSlideFriction

	if pb, ok := ecs.Get(w, e, component.PhysicsBodyComponent); ok && pb.Body != nil {
		pb.Body.SetPosition(cp.Vector{X: t.X, Y: t.Y})
		pb.Body.SetVelocity(k.VX, k.VY)
	}

	w.Events().Push(ecs.CollisionEvent{
		A:           e,
		NormalX:     contact.nx,
		NormalY:     contact.ny,
		Penetration: contact.penetration,
		Impact:      impact,
	})
}

// firstSolidContact tests the agent circle against every solid block
// whose bounds lie within the radius and returns the first overlap.
func firstSolidContact(m citymap.Map, x, y float64, level int, radius float64) (mapContact, bool) {
	minBX := citymap.WorldToBlock(x - radius)
	maxBX := citymap.WorldToBlock(x + radius)
	minBY := citymap.WorldToBlock(y - radius)
	maxBY := citymap.WorldToBlock(y + radius)

	for by := minBY; by <= maxBY; by++ {
		for bx := minBX; bx <= maxBX; bx++ {
			if !m.BlockAt(bx, by, level).Solid() {
				continue
			}
			if contact, ok := circleVsBlock(x, y, radius, bx, by); ok {
				return contact, true
			}
		}
	}
	return mapContact{}, false
}

// circleVsBlock runs the closest-point-on-AABB test against one block.
func circleVsBlock(x, y, radius float64, bx, by int) (mapContact, bool) {
	minX := float64(bx) * citymap.BlockSize
	minY := float64(by) * citymap.BlockSize
	maxX := minX + citymap.BlockSize
	maxY := minY + citymap.BlockSize

	cx := clamp(x, minX, maxX)
	cy := clamp(y, minY, maxY)
	dx := x - cx
	dy := y - cy
	distSq := dx*dx + dy*dy

	if distSq >= radius*radius {
		return mapContact{}, false
	}

	if distSq > 1e-12 {
		dist := math.Sqrt(distSq)
		return mapContact{
			nx:          dx / dist,
			ny:          dy / dist,
			penetration: radius - dist,
		}, true
	}

	// Degenerate: center inside the block. Push toward the nearest of
	// the four edges.
	left := x - minX
	right := maxX - x
	down := y - minY
	up := maxY - y

	best := left
	nx, ny := -1.0, 0.0
	if right < best {
		best, nx, ny = right, 1, 0
	}
	if down < best {
		best, nx, ny = down, 0, -1
	}
	if up < best {
		best, nx, ny = up, 0, 1
	}
	return mapContact{nx: nx, ny: ny, penetration: radius + best}, true
}

// CanMoveTo is the pure query twin of the collision response: it runs
// the same geometric test without mutating anything, for AI and spawn
// logic vetting candidate positions.
func CanMoveTo(m citymap.Map, x, y float64, level int, radius float64) bool {
	_, hit := firstSolidContact(m, x, y, level, radius)
	return !hit
}
