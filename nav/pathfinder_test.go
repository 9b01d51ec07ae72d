package nav

import (
	"math"
	"math/rand"
	"testing"

	"blockcity/citymap"
)

func roadMap(w, h int) *citymap.GridMap {
	g := citymap.NewGridMap(w, h, 1)
	for by := 0; by < h; by++ {
		for bx := 0; bx < w; bx++ {
			g.SetBlock(bx, by, 0, citymap.Road)
		}
	}
	return g
}

func newTestPathfinder(m citymap.Map) *Pathfinder {
	return NewPathfinder(m, rand.New(rand.NewSource(1)))
}

func TestFindPathStraight(t *testing.T) {
	p := newTestPathfinder(roadMap(10, 10))

	path := p.FindPath(8, 8, 88, 8, 0)
	if path == nil {
		t.Fatal("expected a path on an open map")
	}
	if len(path) != 6 {
		t.Fatalf("expected 6 cells on a straight row, got %d", len(path))
	}
	if path[0].X != 8 || path[0].Y != 8 {
		t.Fatalf("path starts at %+v, want start cell center", path[0])
	}
	last := path[len(path)-1]
	if last.X != 88 || last.Y != 8 {
		t.Fatalf("path ends at %+v, want end cell center", last)
	}
}

func TestFindPathStepsAreAdjacent(t *testing.T) {
	p := newTestPathfinder(roadMap(10, 10))

	path := p.FindPath(8, 8, 280, 280, 0)
	if path == nil {
		t.Fatal("expected a path")
	}
	maxStep := DefaultCellSize*math.Sqrt2 + 1e-9
	for i := 1; i < len(path); i++ {
		dx := path[i].X - path[i-1].X
		dy := path[i].Y - path[i-1].Y
		if d := math.Hypot(dx, dy); d > maxStep {
			t.Fatalf("step %d jumps %v units, max is %v", i, d, maxStep)
		}
	}
}

func TestFindPathBlocked(t *testing.T) {
	g := roadMap(10, 10)
	for by := 0; by < 10; by++ {
		g.SetBlock(5, by, 0, citymap.Wall)
	}
	p := newTestPathfinder(g)

	if path := p.FindPath(8, 8, 300, 8, 0); path != nil {
		t.Fatalf("expected no path across a full wall, got %d points", len(path))
	}
	// Failures are not memoized.
	if p.CacheLen() != 0 {
		t.Fatalf("failed search was cached, cache len %d", p.CacheLen())
	}
}

func TestFindPathDeterministic(t *testing.T) {
	a := newTestPathfinder(roadMap(12, 12))
	b := newTestPathfinder(roadMap(12, 12))

	pa := a.FindPath(8, 8, 360, 200, 0)
	pb := b.FindPath(8, 8, 360, 200, 0)
	if len(pa) == 0 || len(pa) != len(pb) {
		t.Fatalf("path lengths differ: %d vs %d", len(pa), len(pb))
	}
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("paths diverge at %d: %+v vs %+v", i, pa[i], pb[i])
		}
	}
}

func TestFindPathCacheCounters(t *testing.T) {
	p := newTestPathfinder(roadMap(10, 10))

	first := p.FindPath(8, 8, 200, 200, 0)
	if first == nil {
		t.Fatal("expected a path")
	}
	if p.CacheMisses() != 1 || p.CacheHits() != 0 {
		t.Fatalf("after first query: hits=%d misses=%d", p.CacheHits(), p.CacheMisses())
	}

	second := p.FindPath(8, 8, 200, 200, 0)
	if p.CacheHits() != 1 {
		t.Fatalf("identical query should hit the cache, hits=%d", p.CacheHits())
	}
	if len(second) != len(first) {
		t.Fatalf("cached path differs: %d vs %d points", len(second), len(first))
	}

	// Returned slices are copies; mutating one must not poison the cache.
	second[0].X = -999
	third := p.FindPath(8, 8, 200, 200, 0)
	if third[0].X == -999 {
		t.Fatal("cache returned a shared slice")
	}
}

func TestCacheSurvivesMapEdit(t *testing.T) {
	g := roadMap(10, 10)
	p := newTestPathfinder(g)

	if p.FindPath(8, 8, 296, 8, 0) == nil {
		t.Fatal("expected a path before the edit")
	}

	for by := 0; by < 10; by++ {
		g.SetBlock(5, by, 0, citymap.Wall)
	}

	// The cache is never auto-invalidated: the stale path still serves.
	if p.FindPath(8, 8, 296, 8, 0) == nil {
		t.Fatal("expected the cached path after the edit")
	}
	if p.CacheHits() != 1 {
		t.Fatalf("expected a cache hit, hits=%d", p.CacheHits())
	}

	p.ClearCache()
	if p.FindPath(8, 8, 296, 8, 0) != nil {
		t.Fatal("expected no path after clearing the cache")
	}
}

func TestExpansionCapReturnsNoPath(t *testing.T) {
	p := newTestPathfinder(roadMap(20, 20))
	p.SetMaxExpansions(1)

	// The cap cannot reach the far corner; the result is no path at
	// all, never a truncated one.
	if path := p.FindPath(8, 8, 632, 632, 0); path != nil {
		t.Fatalf("expected nil under the expansion cap, got %d points", len(path))
	}
}

func TestPathCacheFIFOEviction(t *testing.T) {
	c := newPathCache(2)

	k1 := cacheKey{sx: 1}
	k2 := cacheKey{sx: 2}
	k3 := cacheKey{sx: 3}
	c.put(k1, []Point{{X: 1}})
	c.put(k2, []Point{{X: 2}})
	c.put(k3, []Point{{X: 3}})

	if c.len() != 2 {
		t.Fatalf("cache len = %d, want 2", c.len())
	}
	if _, ok := c.get(k1); ok {
		t.Fatal("oldest entry should have been evicted first")
	}
	if _, ok := c.get(k2); !ok {
		t.Fatal("k2 should survive")
	}
	if _, ok := c.get(k3); !ok {
		t.Fatal("k3 should survive")
	}

	// Overwriting an existing key must not count as an insertion.
	c.put(k2, []Point{{X: 20}})
	if c.len() != 2 {
		t.Fatalf("overwrite changed len to %d", c.len())
	}
	if got, _ := c.get(k2); got[0].X != 20 {
		t.Fatalf("overwrite did not take, got %+v", got)
	}
}

func TestIsWalkable(t *testing.T) {
	g := citymap.NewGridMap(3, 1, 1)
	g.SetBlock(0, 0, 0, citymap.Road)
	g.SetBlock(1, 0, 0, citymap.Water)
	g.SetBlock(2, 0, 0, citymap.Wall)
	p := newTestPathfinder(g)

	if !p.IsWalkable(16, 16, 0) {
		t.Fatal("road should be walkable")
	}
	if p.IsWalkable(48, 16, 0) {
		t.Fatal("water is not on the allow-list")
	}
	if p.IsWalkable(80, 16, 0) {
		t.Fatal("solid wall should not be walkable")
	}
}

func TestNearestWalkableRandom(t *testing.T) {
	t.Run("open_map_hits", func(t *testing.T) {
		p := newTestPathfinder(roadMap(5, 5))
		if _, ok := p.NearestWalkableRandom(80, 80, 0, 50, 12); !ok {
			t.Fatal("expected a hit on an all-walkable map")
		}
	})
	t.Run("solid_map_misses", func(t *testing.T) {
		g := citymap.NewGridMap(5, 5, 1)
		for by := 0; by < 5; by++ {
			for bx := 0; bx < 5; bx++ {
				g.SetBlock(bx, by, 0, citymap.Wall)
			}
		}
		p := newTestPathfinder(g)
		if _, ok := p.NearestWalkableRandom(80, 80, 0, 50, 12); ok {
			t.Fatal("expected a miss on an all-solid map")
		}
	})
}

func TestNearestWalkableRing(t *testing.T) {
	g := citymap.NewGridMap(5, 5, 1)
	for by := 0; by < 5; by++ {
		for bx := 0; bx < 5; bx++ {
			g.SetBlock(bx, by, 0, citymap.Wall)
		}
	}
	g.SetBlock(0, 0, 0, citymap.Road)
	p := newTestPathfinder(g)

	pt, ok := p.NearestWalkableRing(80, 80, 0, 100)
	if !ok {
		t.Fatal("expected the ring search to find the road block")
	}
	if pt.X != 24 || pt.Y != 24 {
		t.Fatalf("nearest walkable = %+v, want the closest cell center (24,24)", pt)
	}

	if _, ok := p.NearestWalkableRing(80, 80, 0, 16); ok {
		t.Fatal("radius too small to reach the road block")
	}
}
