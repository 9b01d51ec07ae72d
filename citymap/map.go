package citymap

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Map is the read-only world the simulation queries. Implementations
// must be safe for repeated single-threaded reads within a tick.
type Map interface {
	// BlockAt returns the block at block coordinates on a level.
	// Out-of-range queries return a solid block so agents cannot
	// leave the world.
	BlockAt(bx, by, level int) Block
	// GroundLevel returns the lowest level with a non-solid block at
	// the column, scanning upward.
	GroundLevel(bx, by int) int
	// Bounds returns the map dimensions in blocks and the level count.
	Bounds() (w, h, levels int)
}

// WorldToBlock converts a world coordinate to a block coordinate.
func WorldToBlock(v float64) int {
	return int(math.Floor(v / BlockSize))
}

// BlockCenter returns the world coordinate of a block's center.
func BlockCenter(b int) float64 {
	return float64(b)*BlockSize + BlockSize/2
}

// BlockAtWorld looks up the block under a world position.
func BlockAtWorld(m Map, x, y float64, level int) Block {
	return m.BlockAt(WorldToBlock(x), WorldToBlock(y), level)
}

// GridMap is a dense in-memory Map used by the runner and tests.
type GridMap struct {
	w, h   int
	levels [][]Block // [level][y*w+x]
}

var solidBoundary = Block{Type: Wall, Collision: CollisionSolid, Surface: SurfaceNone}

// NewGridMap creates an all-air map with the given dimensions.
func NewGridMap(w, h, levels int) *GridMap {
	if w <= 0 || h <= 0 || levels <= 0 {
		return &GridMap{w: 0, h: 0}
	}
	data := make([][]Block, levels)
	for z := range data {
		cells := make([]Block, w*h)
		for i := range cells {
			cells[i] = Classify(Air)
		}
		data[z] = cells
	}
	return &GridMap{w: w, h: h, levels: data}
}

func (g *GridMap) Bounds() (int, int, int) {
	return g.w, g.h, len(g.levels)
}

func (g *GridMap) inRange(bx, by, level int) bool {
	return bx >= 0 && by >= 0 && bx < g.w && by < g.h && level >= 0 && level < len(g.levels)
}

func (g *GridMap) BlockAt(bx, by, level int) Block {
	if !g.inRange(bx, by, level) {
		return solidBoundary
	}
	return g.levels[level][by*g.w+bx]
}

// SetBlock replaces the block at the coordinates. Callers that change
// walkability must clear the pathfinder cache and rebuild the waypoint
// network themselves.
func (g *GridMap) SetBlock(bx, by, level int, t BlockType) bool {
	if !g.inRange(bx, by, level) {
		return false
	}
	g.levels[level][by*g.w+bx] = Classify(t)
	return true
}

func (g *GridMap) GroundLevel(bx, by int) int {
	for z := 0; z < len(g.levels); z++ {
		if !g.BlockAt(bx, by, z).Solid() {
			return z
		}
	}
	return 0
}

type mapFile struct {
	Width  int               `yaml:"width"`
	Height int               `yaml:"height"`
	Legend map[string]string `yaml:"legend"`
	Levels []mapLevel        `yaml:"levels"`
}

type mapLevel struct {
	Z    int      `yaml:"z"`
	Rows []string `yaml:"rows"`
}

var typesByName = map[string]BlockType{
	"air": Air, "road": Road, "sidewalk": Sidewalk, "crosswalk": Crosswalk,
	"grass": Grass, "dirt": Dirt, "sand": Sand, "water": Water, "ice": Ice,
	"building": Building, "wall": Wall, "ramp": Ramp,
}

// BlockTypeByName resolves a block type by its legend name.
func BlockTypeByName(name string) (BlockType, bool) {
	t, ok := typesByName[name]
	return t, ok
}

// LoadGridMap reads a YAML map file: a character legend plus one row
// block per level.
func LoadGridMap(path string) (*GridMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("citymap: load %s: %w", path, err)
	}
	return ParseGridMap(data)
}

// ParseGridMap parses YAML map data.
func ParseGridMap(data []byte) (*GridMap, error) {
	var f mapFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("citymap: unmarshal map: %w", err)
	}
	if f.Width <= 0 || f.Height <= 0 || len(f.Levels) == 0 {
		return nil, fmt.Errorf("citymap: map needs width, height, and at least one level")
	}

	legend := make(map[rune]BlockType, len(f.Legend))
	for ch, name := range f.Legend {
		t, ok := typesByName[name]
		if !ok {
			return nil, fmt.Errorf("citymap: legend %q: unknown block type %q", ch, name)
		}
		for _, r := range ch {
			legend[r] = t
			break
		}
	}

	maxZ := 0
	for _, lvl := range f.Levels {
		if lvl.Z > maxZ {
			maxZ = lvl.Z
		}
	}
	g := NewGridMap(f.Width, f.Height, maxZ+1)
	for _, lvl := range f.Levels {
		if lvl.Z < 0 {
			return nil, fmt.Errorf("citymap: level z %d out of range", lvl.Z)
		}
		for y, row := range lvl.Rows {
			if y >= f.Height {
				break
			}
			x := 0
			for _, r := range row {
				if x >= f.Width {
					break
				}
				t, ok := legend[r]
				if !ok {
					return nil, fmt.Errorf("citymap: row %d: %q not in legend", y, r)
				}
				g.SetBlock(x, y, lvl.Z, t)
				x++
			}
		}
	}
	return g, nil
}
