package citymap

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		blockType BlockType
		solid     bool
		surface   SurfaceClass
	}{
		{"air", Air, false, SurfaceOpen},
		{"road", Road, false, SurfaceRoad},
		{"sidewalk", Sidewalk, false, SurfaceSidewalk},
		{"crosswalk", Crosswalk, false, SurfaceCrosswalk},
		{"grass", Grass, false, SurfaceGrass},
		{"dirt", Dirt, false, SurfaceDirt},
		{"ramp_acts_as_dirt", Ramp, false, SurfaceDirt},
		{"sand", Sand, false, SurfaceSand},
		{"ice", Ice, false, SurfaceIce},
		{"water", Water, false, SurfaceWater},
		{"building", Building, true, SurfaceNone},
		{"wall", Wall, true, SurfaceNone},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := Classify(c.blockType)
			if b.Solid() != c.solid {
				t.Fatalf("Solid() = %v, want %v", b.Solid(), c.solid)
			}
			if b.Surface != c.surface {
				t.Fatalf("Surface = %v, want %v", b.Surface, c.surface)
			}
		})
	}
}

func TestWalkableAllowList(t *testing.T) {
	walkable := []SurfaceClass{
		SurfaceOpen, SurfaceRoad, SurfaceSidewalk, SurfaceCrosswalk,
		SurfaceGrass, SurfaceDirt, SurfaceSand,
	}
	blocked := []SurfaceClass{SurfaceIce, SurfaceWater, SurfaceNone}

	for _, s := range walkable {
		if !Walkable(s) {
			t.Errorf("expected surface %v walkable", s)
		}
	}
	for _, s := range blocked {
		if Walkable(s) {
			t.Errorf("expected surface %v not walkable", s)
		}
	}
}

func TestGridMapBoundary(t *testing.T) {
	g := NewGridMap(4, 4, 1)

	cases := []struct {
		name   string
		bx, by int
		level  int
		solid  bool
	}{
		{"inside", 1, 1, 0, false},
		{"west_of_map", -1, 0, 0, true},
		{"east_of_map", 4, 0, 0, true},
		{"south_of_map", 0, 4, 0, true},
		{"below_levels", 0, 0, -1, true},
		{"above_levels", 0, 0, 1, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := g.BlockAt(c.bx, c.by, c.level)
			if b.Solid() != c.solid {
				t.Fatalf("BlockAt(%d,%d,%d).Solid() = %v, want %v", c.bx, c.by, c.level, b.Solid(), c.solid)
			}
		})
	}
}

func TestGridMapSetBlock(t *testing.T) {
	g := NewGridMap(3, 3, 2)

	if !g.SetBlock(1, 1, 0, Road) {
		t.Fatal("SetBlock in range should succeed")
	}
	if got := g.BlockAt(1, 1, 0); got.Type != Road || got.Surface != SurfaceRoad {
		t.Fatalf("expected road block, got %+v", got)
	}
	if g.SetBlock(5, 5, 0, Road) {
		t.Fatal("SetBlock out of range should fail")
	}
}

func TestGroundLevel(t *testing.T) {
	g := NewGridMap(2, 2, 3)
	g.SetBlock(0, 0, 0, Building)
	g.SetBlock(0, 0, 1, Building)

	if got := g.GroundLevel(0, 0); got != 2 {
		t.Fatalf("GroundLevel = %d, want 2", got)
	}
	if got := g.GroundLevel(1, 1); got != 0 {
		t.Fatalf("GroundLevel on open column = %d, want 0", got)
	}
}

func TestWorldBlockConversion(t *testing.T) {
	if got := WorldToBlock(0); got != 0 {
		t.Fatalf("WorldToBlock(0) = %d", got)
	}
	if got := WorldToBlock(BlockSize - 0.001); got != 0 {
		t.Fatalf("WorldToBlock(just under block edge) = %d", got)
	}
	if got := WorldToBlock(BlockSize); got != 1 {
		t.Fatalf("WorldToBlock(block edge) = %d", got)
	}
	if got := WorldToBlock(-0.001); got != -1 {
		t.Fatalf("WorldToBlock(negative) = %d, want -1", got)
	}
	if got := BlockCenter(2); got != 2*BlockSize+BlockSize/2 {
		t.Fatalf("BlockCenter(2) = %v", got)
	}
}

func TestParseGridMap(t *testing.T) {
	data := []byte(`
width: 3
height: 2
legend:
  ".": grass
  "r": road
  "B": building
levels:
  - z: 0
    rows:
      - ".rB"
      - "rrr"
`)
	g, err := ParseGridMap(data)
	if err != nil {
		t.Fatalf("ParseGridMap: %v", err)
	}
	w, h, levels := g.Bounds()
	if w != 3 || h != 2 || levels != 1 {
		t.Fatalf("Bounds = %d,%d,%d", w, h, levels)
	}
	if got := g.BlockAt(0, 0, 0); got.Type != Grass {
		t.Fatalf("(0,0) = %v, want grass", got.Type)
	}
	if got := g.BlockAt(2, 0, 0); !got.Solid() {
		t.Fatalf("(2,0) should be solid building")
	}
	if got := g.BlockAt(1, 1, 0); got.Surface != SurfaceRoad {
		t.Fatalf("(1,1) = %v, want road surface", got.Surface)
	}
}

func TestParseGridMapErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"missing_dimensions", `legend: {".": grass}`},
		{"unknown_type", "width: 1\nheight: 1\nlegend: {\"x\": lava}\nlevels: [{z: 0, rows: [\"x\"]}]"},
		{"char_not_in_legend", "width: 1\nheight: 1\nlegend: {\".\": grass}\nlevels: [{z: 0, rows: [\"q\"]}]"},
		{"negative_level", "width: 1\nheight: 1\nlegend: {\".\": grass}\nlevels: [{z: -1, rows: [\".\"]}]"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ParseGridMap([]byte(c.data)); err == nil {
				t.Fatal("expected parse error")
			}
		})
	}
}

func TestSurfaceTableInvariants(t *testing.T) {
	tbl := DefaultSurfaceTable()

	for _, s := range tbl.All() {
		m := tbl.For(s)
		if m.Grip <= 0 || m.Grip > 1 {
			t.Errorf("surface %v: grip %v out of (0,1]", s, m.Grip)
		}
		if m.SpeedFactor <= 0 {
			t.Errorf("surface %v: speed factor %v not positive", s, m.SpeedFactor)
		}
	}

	cases := []struct {
		name string
		mod  SurfaceModifiers
		ok   bool
	}{
		{"valid", SurfaceModifiers{Grip: 0.5, Friction: 2, SpeedFactor: 0.9}, true},
		{"zero_grip", SurfaceModifiers{Grip: 0, Friction: 2, SpeedFactor: 0.9}, false},
		{"grip_above_one", SurfaceModifiers{Grip: 1.2, Friction: 2, SpeedFactor: 0.9}, false},
		{"zero_speed_factor", SurfaceModifiers{Grip: 0.5, Friction: 2, SpeedFactor: 0}, false},
		{"negative_friction", SurfaceModifiers{Grip: 0.5, Friction: -1, SpeedFactor: 0.9}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := tbl.Set(SurfaceGrass, c.mod); got != c.ok {
				t.Fatalf("Set = %v, want %v", got, c.ok)
			}
		})
	}

	if m := tbl.For(SurfaceIce); m.Grip != 0.08 {
		t.Fatalf("ice grip = %v, want 0.08", m.Grip)
	}
}
