package nav

// cacheKey quantizes a path query to grid cells.
type cacheKey struct {
	sx, sy int
	ex, ey int
	level  int
}

// pathCache memoizes successful path queries. Eviction is FIFO by
// insertion once the capacity bound is reached; there is no automatic
// invalidation on map change.
type pathCache struct {
	cap     int
	entries map[cacheKey][]Point
	order   []cacheKey
}

func newPathCache(capacity int) *pathCache {
	if capacity <= 0 {
		capacity = 256
	}
	return &pathCache{
		cap:     capacity,
		entries: make(map[cacheKey][]Point, capacity),
	}
}

func (c *pathCache) get(k cacheKey) ([]Point, bool) {
	p, ok := c.entries[k]
	return p, ok
}

func (c *pathCache) put(k cacheKey, path []Point) {
	if _, ok := c.entries[k]; ok {
		c.entries[k] = path
		return
	}
	for len(c.entries) >= c.cap && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[k] = path
	c.order = append(c.order, k)
}

func (c *pathCache) clear() {
	c.entries = make(map[cacheKey][]Point, c.cap)
	c.order = c.order[:0]
}

func (c *pathCache) len() int {
	return len(c.entries)
}
