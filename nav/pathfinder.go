// Package nav provides the grid pathfinder and the road waypoint
// network. Both are owned by a Context value passed into the systems
// that need them; there is no package-level navigation state.
package nav

import (
	"container/heap"
	"math"
	"math/rand"

	"blockcity/citymap"
)

// Point is a world-space position on a level.
type Point struct {
	X float64
	Y float64
}

const (
	// DefaultCellSize is the pathfinding grid cell edge in world
	// units. It is independent of the block size used for rendering.
	DefaultCellSize = 16.0
	// DefaultMaxExpansions bounds worst-case search latency. The cap
	// is a hard limit, not a timeout: hitting it returns no path, not
	// a partial one.
	DefaultMaxExpansions = 4096
	// DefaultCacheCapacity bounds the path cache.
	DefaultCacheCapacity = 256

	diagonalCost = math.Sqrt2
)

// Pathfinder runs A* over the walkability grid derived from the map.
type Pathfinder struct {
	m        citymap.Map
	cellSize float64
	maxExp   int
	cache    *pathCache
	rng      *rand.Rand

	hits   int
	misses int
}

// NewPathfinder creates a pathfinder over the map. rng drives the
// random nearest-walkable sampling and may not be nil.
func NewPathfinder(m citymap.Map, rng *rand.Rand) *Pathfinder {
	return &Pathfinder{
		m:        m,
		cellSize: DefaultCellSize,
		maxExp:   DefaultMaxExpansions,
		cache:    newPathCache(DefaultCacheCapacity),
		rng:      rng,
	}
}

// SetMaxExpansions overrides the expansion cap.
func (p *Pathfinder) SetMaxExpansions(n int) {
	if n > 0 {
		p.maxExp = n
	}
}

// CacheHits returns the number of queries served from the cache.
func (p *Pathfinder) CacheHits() int { return p.hits }

// CacheMisses returns the number of queries that ran a search.
func (p *Pathfinder) CacheMisses() int { return p.misses }

// CacheLen returns the number of cached paths.
func (p *Pathfinder) CacheLen() int { return p.cache.len() }

// ClearCache drops every cached path. The cache is never invalidated
// automatically: callers must clear it after any terrain edit or
// waypoint network rebuild that could change walkability.
func (p *Pathfinder) ClearCache() {
	p.cache.clear()
}

// IsWalkable reports whether the block under a world position is on
// the walkable surface allow-list.
func (p *Pathfinder) IsWalkable(x, y float64, level int) bool {
	b := citymap.BlockAtWorld(p.m, x, y, level)
	return !b.Solid() && citymap.Walkable(b.Surface)
}

func (p *Pathfinder) gridSize() (int, int) {
	w, h, _ := p.m.Bounds()
	gw := int(math.Ceil(float64(w) * citymap.BlockSize / p.cellSize))
	gh := int(math.Ceil(float64(h) * citymap.BlockSize / p.cellSize))
	return gw, gh
}

func (p *Pathfinder) cellOf(x, y float64, gw, gh int) (int, int) {
	cx := int(math.Floor(x / p.cellSize))
	cy := int(math.Floor(y / p.cellSize))
	return clampInt(cx, 0, gw-1), clampInt(cy, 0, gh-1)
}

func (p *Pathfinder) cellCenter(cx, cy int) Point {
	half := p.cellSize / 2
	return Point{X: float64(cx)*p.cellSize + half, Y: float64(cy)*p.cellSize + half}
}

func (p *Pathfinder) cellWalkable(cx, cy, level int) bool {
	c := p.cellCenter(cx, cy)
	return p.IsWalkable(c.X, c.Y, level)
}

// FindPath searches from start to end on a level and returns the path
// as world points, or nil when no path exists within the expansion
// cap. No-path is a valid outcome, not an error. Results are memoized
// keyed by quantized start/end cell and level.
//
// The heuristic is Manhattan distance, which overestimates for
// 8-connected movement with sqrt(2) diagonals. That makes the search
// inadmissible and paths possibly suboptimal by a bounded factor; the
// tradeoff favors speed and is intentional.
func (p *Pathfinder) FindPath(startX, startY, endX, endY float64, level int) []Point {
	gw, gh := p.gridSize()
	if gw <= 0 || gh <= 0 {
		return nil
	}
	scx, scy := p.cellOf(startX, startY, gw, gh)
	ecx, ecy := p.cellOf(endX, endY, gw, gh)

	key := cacheKey{sx: scx, sy: scy, ex: ecx, ey: ecy, level: level}
	if cached, ok := p.cache.get(key); ok {
		p.hits++
		return append([]Point(nil), cached...)
	}
	p.misses++

	path := p.search(scx, scy, ecx, ecy, level, gw, gh)
	if path != nil {
		p.cache.put(key, path)
	}
	return append([]Point(nil), path...)
}

func (p *Pathfinder) search(scx, scy, ecx, ecy, level, gw, gh int) []Point {
	if !p.cellWalkable(scx, scy, level) || !p.cellWalkable(ecx, ecy, level) {
		return nil
	}

	startIdx := scy*gw + scx
	goalIdx := ecy*gw + ecx

	cameFrom := make([]int32, gw*gh)
	for i := range cameFrom {
		cameFrom[i] = -1
	}
	gScore := make([]float64, gw*gh)
	for i := range gScore {
		gScore[i] = math.Inf(1)
	}
	gScore[startIdx] = 0

	open := &openSet{}
	heap.Init(open)
	heap.Push(open, &openItem{idx: startIdx, f: manhattan(scx, scy, ecx, ecy)})

	expansions := 0
	for open.Len() > 0 {
		expansions++
		if expansions > p.maxExp {
			return nil
		}
		cur := heap.Pop(open).(*openItem)
		if cur.idx == goalIdx {
			return p.reconstruct(cameFrom, gw, startIdx, goalIdx)
		}
		cx := cur.idx % gw
		cy := cur.idx / gw

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := cx+dx, cy+dy
				if nx < 0 || ny < 0 || nx >= gw || ny >= gh {
					continue
				}
				if !p.cellWalkable(nx, ny, level) {
					continue
				}
				step := 1.0
				if dx != 0 && dy != 0 {
					step = diagonalCost
				}
				nIdx := ny*gw + nx
				tentative := gScore[cur.idx] + step
				if tentative < gScore[nIdx] {
					cameFrom[nIdx] = int32(cur.idx)
					gScore[nIdx] = tentative
					heap.Push(open, &openItem{
						idx: nIdx,
						f:   tentative + manhattan(nx, ny, ecx, ecy),
					})
				}
			}
		}
	}
	return nil
}

func (p *Pathfinder) reconstruct(cameFrom []int32, gw, startIdx, goalIdx int) []Point {
	if startIdx == goalIdx {
		return []Point{p.cellCenter(startIdx%gw, startIdx/gw)}
	}
	rev := make([]int, 0, 32)
	cur := goalIdx
	for cur != -1 {
		rev = append(rev, cur)
		if cur == startIdx {
			break
		}
		cur = int(cameFrom[cur])
	}
	out := make([]Point, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		out = append(out, p.cellCenter(rev[i]%gw, rev[i]/gw))
	}
	return out
}

// NearestWalkableRandom samples random points within radius and
// returns the first walkable one. It favors speed over correctness and
// is used for idle wander targets; a miss after the attempt bound is a
// valid outcome.
func (p *Pathfinder) NearestWalkableRandom(x, y float64, level int, radius float64, attempts int) (Point, bool) {
	if attempts <= 0 {
		attempts = 12
	}
	for i := 0; i < attempts; i++ {
		ang := p.rng.Float64() * 2 * math.Pi
		dist := p.rng.Float64() * radius
		cx := x + math.Cos(ang)*dist
		cy := y + math.Sin(ang)*dist
		if p.IsWalkable(cx, cy, level) {
			return Point{X: cx, Y: cy}, true
		}
	}
	return Point{}, false
}

// NearestWalkableRing searches cells in expanding rings around the
// position and returns the guaranteed nearest walkable cell center
// within maxRadius. Slower than random sampling; used when a nearest
// point is required, not merely convenient.
func (p *Pathfinder) NearestWalkableRing(x, y float64, level int, maxRadius float64) (Point, bool) {
	gw, gh := p.gridSize()
	if gw <= 0 || gh <= 0 {
		return Point{}, false
	}
	cx, cy := p.cellOf(x, y, gw, gh)
	maxRing := int(math.Ceil(maxRadius / p.cellSize))

	if p.cellWalkable(cx, cy, level) {
		return p.cellCenter(cx, cy), true
	}
	for r := 1; r <= maxRing; r++ {
		best := Point{}
		bestDist := math.Inf(1)
		found := false
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if maxAbs(dx, dy) != r {
					continue // ring perimeter only
				}
				nx, ny := cx+dx, cy+dy
				if nx < 0 || ny < 0 || nx >= gw || ny >= gh {
					continue
				}
				if !p.cellWalkable(nx, ny, level) {
					continue
				}
				c := p.cellCenter(nx, ny)
				d := (c.X-x)*(c.X-x) + (c.Y-y)*(c.Y-y)
				if d < bestDist {
					best = c
					bestDist = d
					found = true
				}
			}
		}
		if found {
			return best, true
		}
	}
	return Point{}, false
}

func manhattan(ax, ay, bx, by int) float64 {
	return math.Abs(float64(ax-bx)) + math.Abs(float64(ay-by))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxAbs(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if a > b {
		return a
	}
	return b
}

type openItem struct {
	idx   int
	f     float64
	index int
}

type openSet []*openItem

func (o openSet) Len() int           { return len(o) }
func (o openSet) Less(i, j int) bool { return o[i].f < o[j].f }
func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}

func (o *openSet) Push(x any) {
	item := x.(*openItem)
	item.index = len(*o)
	*o = append(*o, item)
}

func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*o = old[:n-1]
	return item
}
