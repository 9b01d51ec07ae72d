package citymap

// SurfaceModifiers tune vehicle handling per surface. Grip multiplies
// effective tire grip and stays in (0, 1]; Friction is an additive
// deceleration; SpeedFactor scales the vehicle's max speed and is > 0.
type SurfaceModifiers struct {
	Grip        float64
	Friction    float64
	SpeedFactor float64
}

// SurfaceTable maps every surface class to its modifiers. Vehicles look
// their surface up fresh each tick, so edits take effect immediately.
type SurfaceTable struct {
	mods [SurfaceNone + 1]SurfaceModifiers
}

// DefaultSurfaceTable returns the stock tuning.
func DefaultSurfaceTable() *SurfaceTable {
	t := &SurfaceTable{}
	t.mods[SurfaceOpen] = SurfaceModifiers{Grip: 1.0, Friction: 2.0, SpeedFactor: 1.0}
	t.mods[SurfaceRoad] = SurfaceModifiers{Grip: 1.0, Friction: 1.0, SpeedFactor: 1.0}
	t.mods[SurfaceSidewalk] = SurfaceModifiers{Grip: 0.95, Friction: 2.0, SpeedFactor: 0.8}
	t.mods[SurfaceCrosswalk] = SurfaceModifiers{Grip: 1.0, Friction: 1.0, SpeedFactor: 1.0}
	t.mods[SurfaceGrass] = SurfaceModifiers{Grip: 0.7, Friction: 6.0, SpeedFactor: 0.6}
	t.mods[SurfaceDirt] = SurfaceModifiers{Grip: 0.6, Friction: 5.0, SpeedFactor: 0.7}
	t.mods[SurfaceSand] = SurfaceModifiers{Grip: 0.45, Friction: 10.0, SpeedFactor: 0.45}
	t.mods[SurfaceIce] = SurfaceModifiers{Grip: 0.08, Friction: 0.3, SpeedFactor: 1.0}
	t.mods[SurfaceWater] = SurfaceModifiers{Grip: 0.3, Friction: 14.0, SpeedFactor: 0.25}
	t.mods[SurfaceNone] = SurfaceModifiers{Grip: 1.0, Friction: 1.0, SpeedFactor: 1.0}
	return t
}

// For returns the modifiers for a surface class.
func (t *SurfaceTable) For(s SurfaceClass) SurfaceModifiers {
	if int(s) >= len(t.mods) {
		return t.mods[SurfaceOpen]
	}
	return t.mods[s]
}

// Set overrides the modifiers for a surface class. Zero or negative
// grip/speed-factor values are rejected to preserve the modifier
// invariants (grip in (0,1], speed factor > 0).
func (t *SurfaceTable) Set(s SurfaceClass, m SurfaceModifiers) bool {
	if int(s) >= len(t.mods) {
		return false
	}
	if m.Grip <= 0 || m.Grip > 1 || m.SpeedFactor <= 0 || m.Friction < 0 {
		return false
	}
	t.mods[s] = m
	return true
}

// All returns every surface class with defined modifiers.
func (t *SurfaceTable) All() []SurfaceClass {
	out := make([]SurfaceClass, 0, len(t.mods))
	for s := range t.mods {
		out = append(out, SurfaceClass(s))
	}
	return out
}
