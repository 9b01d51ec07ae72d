package nav

import (
	"math"
	"math/rand"

	"blockcity/citymap"
)

const (
	// connectFactor times the block size bounds the neighbor linking
	// distance. 1.5 links orthogonal and diagonal road neighbors; the
	// result is a proximity graph, not a planar road graph, which is
	// an accepted approximation.
	connectFactor = 1.5

	// Intersections need at least this many orthogonal road neighbors.
	intersectionDegree = 3
)

// LightTiming is the traffic-light cycle on an intersection waypoint.
// Phases are tick-clock driven, not wall-clock.
type LightTiming struct {
	GreenSeconds float64
	RedSeconds   float64
	Offset       float64
}

// IsRed reports the light phase at a simulation time.
func (l LightTiming) IsRed(t float64) bool {
	cycle := l.GreenSeconds + l.RedSeconds
	if cycle <= 0 {
		return false
	}
	phase := math.Mod(t+l.Offset, cycle)
	return phase >= l.GreenSeconds
}

// Waypoint is one road-block centroid node in the routing graph.
// Neighbors are bidirectional; cycles are expected and valid.
type Waypoint struct {
	ID           int
	X, Y         float64
	Level        int
	Neighbors    []int
	SpeedLimit   float64
	Intersection bool
	Light        *LightTiming
}

// Network is the vehicle routing graph. It is rebuilt wholesale when
// the map changes; there is no incremental edit.
type Network struct {
	waypoints []Waypoint
}

// BuildFromMap scans every block on the level, places one waypoint per
// road-block centroid, flags intersections (>= 3 orthogonal road
// neighbors) with traffic-light timing, then links any two waypoints
// on the level within connectFactor * BlockSize of each other.
func (n *Network) BuildFromMap(m citymap.Map, level int) {
	w, h, _ := m.Bounds()

	isRoad := func(bx, by int) bool {
		b := m.BlockAt(bx, by, level)
		return b.Surface == citymap.SurfaceRoad || b.Surface == citymap.SurfaceCrosswalk
	}

	start := len(n.waypoints)
	for by := 0; by < h; by++ {
		for bx := 0; bx < w; bx++ {
			if !isRoad(bx, by) {
				continue
			}
			wp := Waypoint{
				ID:         len(n.waypoints),
				X:          citymap.BlockCenter(bx),
				Y:          citymap.BlockCenter(by),
				Level:      level,
				SpeedLimit: 120,
			}
			degree := 0
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				if isRoad(bx+d[0], by+d[1]) {
					degree++
				}
			}
			if degree >= intersectionDegree {
				wp.Intersection = true
				wp.SpeedLimit = 60
				wp.Light = &LightTiming{
					GreenSeconds: 8,
					RedSeconds:   6,
					Offset:       float64(wp.ID%4) * 3.5,
				}
			}
			n.waypoints = append(n.waypoints, wp)
		}
	}

	maxDist := connectFactor * citymap.BlockSize
	maxDistSq := maxDist * maxDist
	for i := start; i < len(n.waypoints); i++ {
		for j := i + 1; j < len(n.waypoints); j++ {
			a, b := &n.waypoints[i], &n.waypoints[j]
			if a.Level != b.Level {
				continue
			}
			dx, dy := a.X-b.X, a.Y-b.Y
			if dx*dx+dy*dy <= maxDistSq {
				a.Neighbors = append(a.Neighbors, b.ID)
				b.Neighbors = append(b.Neighbors, a.ID)
			}
		}
	}
}

// Clear drops the graph ahead of a rebuild.
func (n *Network) Clear() {
	n.waypoints = n.waypoints[:0]
}

// Get returns the waypoint for an id. Unknown ids return false; a
// malformed graph query degrades, it never faults.
func (n *Network) Get(id int) (*Waypoint, bool) {
	if id < 0 || id >= len(n.waypoints) {
		return nil, false
	}
	return &n.waypoints[id], true
}

// Len returns the number of waypoints.
func (n *Network) Len() int {
	return len(n.waypoints)
}

// All returns every waypoint, for spawn logic outside the core.
func (n *Network) All() []Waypoint {
	return append([]Waypoint(nil), n.waypoints...)
}

// NextWaypoint picks uniformly at random among the current waypoint's
// neighbors, excluding the predecessor when other options exist so
// vehicles rarely backtrack. Dead ends fall back to the predecessor.
func (n *Network) NextWaypoint(currentID, previousID int, rng *rand.Rand) (int, bool) {
	cur, ok := n.Get(currentID)
	if !ok || len(cur.Neighbors) == 0 {
		return 0, false
	}
	candidates := cur.Neighbors
	if len(candidates) > 1 {
		filtered := make([]int, 0, len(candidates))
		for _, id := range candidates {
			if id != previousID {
				filtered = append(filtered, id)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
		}
	}
	return candidates[rng.Intn(len(candidates))], true
}

// NearestWaypoint linearly scans for the closest waypoint on the level
// within maxDistance. Acceptable because rebuilds are infrequent and
// the query only runs when a vehicle re-routes.
func (n *Network) NearestWaypoint(x, y float64, level int, maxDistance float64) (int, bool) {
	bestID := -1
	bestSq := maxDistance * maxDistance
	for i := range n.waypoints {
		wp := &n.waypoints[i]
		if wp.Level != level {
			continue
		}
		dx, dy := wp.X-x, wp.Y-y
		if d := dx*dx + dy*dy; d <= bestSq {
			bestSq = d
			bestID = wp.ID
		}
	}
	if bestID < 0 {
		return 0, false
	}
	return bestID, true
}
