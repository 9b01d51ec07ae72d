package system

import (
	"math"

	"github.com/jakecoffman/cp"

	"blockcity/ecs"
	"blockcity/ecs/component"
)

const (
	// EntityRestitution is the low bounce applied to agent contacts.
	EntityRestitution = 0.1
	// TangentFriction damps sliding between touching agents.
	TangentFriction = 0.2
)

// EntityCollisionSystem is the pairwise narrow phase over spatial-grid
// candidates. Position correction splits by the other body's mass, so
// heavy vehicles push pedestrians far more than the reverse; statics
// never move.
type EntityCollisionSystem struct {
	grid *SpatialGrid
}

func NewEntityCollisionSystem(grid *SpatialGrid) *EntityCollisionSystem {
	return &EntityCollisionSystem{grid: grid}
}

type contact struct {
	nx, ny      float64 // A -> B
	penetration float64
}

type pairKey struct {
	lo, hi ecs.Entity
}

func makePairKey(a, b ecs.Entity) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

func (s *EntityCollisionSystem) Update(w *ecs.World, dt float64) {
	// Unordered pair dedup: the first query to find a pair owns it.
	// With mismatched radii only the larger agent's query reaches a
	// deep overlap, so neither endpoint can own pairs by handle order.
	seen := make(map[pairKey]struct{})
	ecs.ForEach2(w, component.ColliderComponent, component.TransformComponent,
		func(a ecs.Entity, ca *component.Collider, ta *component.Transform) {
			queryRadius := ca.BoundingRadius() * 2
			s.grid.Query(ta.X, ta.Y, ta.Level, queryRadius, a, func(entry gridEntry) {
				b := entry.Entity
				key := makePairKey(a, b)
				if _, done := seen[key]; done {
					return
				}
				seen[key] = struct{}{}
				cb, ok := ecs.Get(w, b, component.ColliderComponent)
				if !ok {
					return
				}
				tb, ok := ecs.Get(w, b, component.TransformComponent)
				if !ok {
					return
				}
				if ca.Static && cb.Static {
					return
				}
				if !component.CanCollide(ca, cb) {
					return
				}
				s.resolvePair(w, a, b, ca, cb, ta, tb)
			})
		})
}

func (s *EntityCollisionSystem) resolvePair(w *ecs.World, a, b ecs.Entity, ca, cb *component.Collider, ta, tb *component.Transform) {
	ct, hit := narrowPhase(ca, cb, ta, tb)
	if !hit || ct.penetration < MinPenetration {
		return
	}

	ka, _ := ecs.Get(w, a, component.KinematicsComponent)
	kb, _ := ecs.Get(w, b, component.KinematicsComponent)

	var vax, vay, vbx, vby float64
	if ka != nil {
		vax, vay = ka.VX, ka.VY
	}
	if kb != nil {
		vbx, vby = kb.VX, kb.VY
	}
	relN := (vbx-vax)*ct.nx + (vby-vay)*ct.ny

	massA := ca.EffectiveMass()
	massB := cb.EffectiveMass()

	// Positional correction always applies past the anti-jitter
	// threshold, split in proportion to the other body's mass.
	total := massA + massB
	shareA := massB / total
	shareB := massA / total
	if ca.Static {
		shareA, shareB = 0, 1
	} else if cb.Static {
		shareA, shareB = 1, 0
	}
	ta.X -= ct.nx * ct.penetration * shareA
	ta.Y -= ct.ny * ct.penetration * shareA
	tb.X += ct.nx * ct.penetration * shareB
	tb.Y += ct.ny * ct.penetration * shareB

	// Velocity impulse is skipped for already-separating pairs; that
	// avoids injecting energy into contacts that are resolving
	// themselves while the correction above still prevents overlap.
	if relN <= 0 && ka != nil && kb != nil && !ca.Static && !cb.Static {
		invA := 1 / massA
		invB := 1 / massB
		j := -(1 + EntityRestitution) * relN / (invA + invB)

		ka.VX -= j * ct.nx * invA
		ka.VY -= j * ct.ny * invA
		kb.VX += j * ct.nx * invB
		kb.VY += j * ct.ny * invB

		// Small tangential impulse damps sliding.
		tx, ty := -ct.ny, ct.nx
		relT := (kb.VX-ka.VX)*tx + (kb.VY-ka.VY)*ty
		jt := -relT * TangentFriction / (invA + invB)
		ka.VX -= jt * tx * invA
		ka.VY -= jt * ty * invA
		kb.VX += jt * tx * invB
		kb.VY += jt * ty * invB
	} else if relN <= 0 {
		// One side static or missing kinematics: kill the dynamic
		// side's approach velocity.
		if ka != nil && !ca.Static {
			if vn := ka.VX*ct.nx + ka.VY*ct.ny; vn > 0 {
				ka.VX -= vn * ct.nx
				ka.VY -= vn * ct.ny
			}
		}
		if kb != nil && !cb.Static {
			if vn := kb.VX*ct.nx + kb.VY*ct.ny; vn < 0 {
				kb.VX -= vn * ct.nx
				kb.VY -= vn * ct.ny
			}
		}
	}

	syncBody(w, a, ta, ka)
	syncBody(w, b, tb, kb)

	w.Events().Push(ecs.CollisionEvent{
		A:           a,
		B:           b,
		NormalX:     ct.nx,
		NormalY:     ct.ny,
		Penetration: ct.penetration,
		Impact:      math.Abs(relN),
	})
}

func syncBody(w *ecs.World, e ecs.Entity, t *component.Transform, k *component.Kinematics) {
	pb, ok := ecs.Get(w, e, component.PhysicsBodyComponent)
	if !ok || pb.Body == nil {
		return
	}
	pb.Body.SetPosition(cp.Vector{X: t.X, Y: t.Y})
	if k != nil {
		pb.Body.SetVelocity(k.VX, k.VY)
	}
}

// narrowPhase dispatches on the shape pair and returns the contact
// with the normal pointing from A to B.
func narrowPhase(ca, cb *component.Collider, ta, tb *component.Transform) (contact, bool) {
	switch {
	case ca.Shape == component.ShapeCircle && cb.Shape == component.ShapeCircle:
		return circleCircle(ta.X, ta.Y, ca.Radius, tb.X, tb.Y, cb.Radius)
	case ca.Shape == component.ShapeBox && cb.Shape == component.ShapeBox:
		return boxBox(ta.X, ta.Y, ca.Width/2, ca.Height/2, tb.X, tb.Y, cb.Width/2, cb.Height/2)
	case ca.Shape == component.ShapeCircle:
		return circleBox(ta.X, ta.Y, ca.Radius, tb.X, tb.Y, cb.Width/2, cb.Height/2)
	default:
		ct, ok := circleBox(tb.X, tb.Y, cb.Radius, ta.X, ta.Y, ca.Width/2, ca.Height/2)
		if ok {
			ct.nx, ct.ny = -ct.nx, -ct.ny
		}
		return ct, ok
	}
}

func circleCircle(ax, ay, ra, bx, by, rb float64) (contact, bool) {
	dx := bx - ax
	dy := by - ay
	distSq := dx*dx + dy*dy
	sum := ra + rb
	if distSq >= sum*sum {
		return contact{}, false
	}
	dist := math.Sqrt(distSq)
	if dist < 1e-9 {
		return contact{nx: 1, ny: 0, penetration: sum}, true
	}
	return contact{nx: dx / dist, ny: dy / dist, penetration: sum - dist}, true
}

// boxBox is SAT on the two world axes; colliders are axis-aligned.
func boxBox(ax, ay, ahw, ahh, bx, by, bhw, bhh float64) (contact, bool) {
	dx := bx - ax
	dy := by - ay
	overlapX := (ahw + bhw) - math.Abs(dx)
	overlapY := (ahh + bhh) - math.Abs(dy)
	if overlapX <= 0 || overlapY <= 0 {
		return contact{}, false
	}
	if overlapX < overlapY {
		nx := 1.0
		if dx < 0 {
			nx = -1
		}
		return contact{nx: nx, penetration: overlapX}, true
	}
	ny := 1.0
	if dy < 0 {
		ny = -1
	}
	return contact{ny: ny, penetration: overlapY}, true
}

// circleBox tests circle A against axis-aligned box B by closest point.
func circleBox(ax, ay, r, bx, by, bhw, bhh float64) (contact, bool) {
	cx := clamp(ax, bx-bhw, bx+bhw)
	cy := clamp(ay, by-bhh, by+bhh)
	dx := ax - cx
	dy := ay - cy
	distSq := dx*dx + dy*dy
	if distSq >= r*r {
		return contact{}, false
	}
	if distSq < 1e-12 {
		// Circle center inside the box: separate along the shallower
		// axis.
		px := bhw - math.Abs(ax-bx)
		py := bhh - math.Abs(ay-by)
		if px < py {
			nx := 1.0
			if ax > bx {
				nx = -1
			}
			return contact{nx: nx, penetration: r + px}, true
		}
		ny := 1.0
		if ay > by {
			ny = -1
		}
		return contact{ny: ny, penetration: r + py}, true
	}
	dist := math.Sqrt(distSq)
	// Normal points from A toward B.
	return contact{nx: -dx / dist, ny: -dy / dist, penetration: r - dist}, true
}
