package nav

import (
	"math/rand"

	"blockcity/citymap"
)

// Context owns the navigation state for one simulation: the waypoint
// network and the pathfinder with its cache. It replaces what would
// otherwise be package-level singletons and is passed explicitly to
// every system that navigates.
type Context struct {
	Map        citymap.Map
	Network    *Network
	Pathfinder *Pathfinder
	Rand       *rand.Rand
}

// NewContext builds navigation state for a map, constructing the
// waypoint network for every level.
func NewContext(m citymap.Map, rng *rand.Rand) *Context {
	ctx := &Context{
		Map:        m,
		Network:    &Network{},
		Pathfinder: NewPathfinder(m, rng),
		Rand:       rng,
	}
	ctx.RebuildNetwork()
	return ctx
}

// RebuildNetwork rebuilds the waypoint graph wholesale from the map.
// It does NOT clear the path cache; callers editing terrain must also
// call Pathfinder.ClearCache when walkability may have changed.
func (c *Context) RebuildNetwork() {
	c.Network.Clear()
	_, _, levels := c.Map.Bounds()
	for z := 0; z < levels; z++ {
		c.Network.BuildFromMap(c.Map, z)
	}
}
