// Package citymap defines the block world the simulation reads: block
// and surface classification, per-surface physics modifiers, and the
// read-only Map interface. Persistence of map data is an external
// concern; the core only queries it.
package citymap

// BlockSize is the edge length of one block in world units.
const BlockSize = 32.0

// BlockType identifies what occupies a block.
type BlockType uint8

const (
	Air BlockType = iota
	Road
	Sidewalk
	Crosswalk
	Grass
	Dirt
	Sand
	Water
	Ice
	Building
	Wall
	Ramp
)

func (t BlockType) String() string {
	switch t {
	case Air:
		return "air"
	case Road:
		return "road"
	case Sidewalk:
		return "sidewalk"
	case Crosswalk:
		return "crosswalk"
	case Grass:
		return "grass"
	case Dirt:
		return "dirt"
	case Sand:
		return "sand"
	case Water:
		return "water"
	case Ice:
		return "ice"
	case Building:
		return "building"
	case Wall:
		return "wall"
	case Ramp:
		return "ramp"
	}
	return "unknown"
}

// CollisionClass says whether agents can occupy a block.
type CollisionClass uint8

const (
	CollisionNone CollisionClass = iota
	CollisionSolid
)

// SurfaceClass groups blocks by the surface agents move over.
type SurfaceClass uint8

const (
	SurfaceOpen SurfaceClass = iota
	SurfaceRoad
	SurfaceSidewalk
	SurfaceCrosswalk
	SurfaceGrass
	SurfaceDirt
	SurfaceSand
	SurfaceIce
	SurfaceWater
	SurfaceNone // solid blocks
)

// Block is the classification triple the core reads per cell.
type Block struct {
	Type      BlockType
	Collision CollisionClass
	Surface   SurfaceClass
}

// Classify returns the canonical block for a type.
func Classify(t BlockType) Block {
	switch t {
	case Road:
		return Block{Type: t, Surface: SurfaceRoad}
	case Sidewalk:
		return Block{Type: t, Surface: SurfaceSidewalk}
	case Crosswalk:
		return Block{Type: t, Surface: SurfaceCrosswalk}
	case Grass:
		return Block{Type: t, Surface: SurfaceGrass}
	case Dirt, Ramp:
		return Block{Type: t, Surface: SurfaceDirt}
	case Sand:
		return Block{Type: t, Surface: SurfaceSand}
	case Ice:
		return Block{Type: t, Surface: SurfaceIce}
	case Water:
		return Block{Type: t, Surface: SurfaceWater}
	case Building, Wall:
		return Block{Type: t, Collision: CollisionSolid, Surface: SurfaceNone}
	}
	return Block{Type: Air, Surface: SurfaceOpen}
}

// Solid reports whether agents collide with the block.
func (b Block) Solid() bool {
	return b.Collision == CollisionSolid
}

// Walkable is the pathfinder allow-list: the surfaces agents may plan
// routes across.
func Walkable(s SurfaceClass) bool {
	switch s {
	case SurfaceOpen, SurfaceRoad, SurfaceSidewalk, SurfaceCrosswalk,
		SurfaceGrass, SurfaceDirt, SurfaceSand:
		return true
	}
	return false
}
