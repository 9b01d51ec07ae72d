package prefabs

import (
	"fmt"

	"blockcity/citymap"
	"blockcity/ecs/component"
	"blockcity/sim"
)

// VehicleSpec is the YAML tuning for one vehicle class.
type VehicleSpec struct {
	Name         string  `yaml:"name"`
	Mass         float64 `yaml:"mass"`
	MaxSpeed     float64 `yaml:"max_speed"`
	Acceleration float64 `yaml:"acceleration"`
	Braking      float64 `yaml:"braking"`
	Handling     float64 `yaml:"handling"`
	Grip         float64 `yaml:"grip"`
	Width        float64 `yaml:"width"`
	Height       float64 `yaml:"height"`
	DesiredSpeed float64 `yaml:"desired_speed"`
	Aggression   float64 `yaml:"aggression"`
	Patience     float64 `yaml:"patience"`
	RigidBody    bool    `yaml:"rigid_body"`
}

// Params converts the spec into spawn parameters.
func (s VehicleSpec) Params() sim.VehicleParams {
	return sim.VehicleParams{
		Profile: component.VehicleProfile{
			Mass:         s.Mass,
			MaxSpeed:     s.MaxSpeed,
			Acceleration: s.Acceleration,
			Braking:      s.Braking,
			Handling:     s.Handling,
			Grip:         s.Grip,
		},
		Width:        s.Width,
		Height:       s.Height,
		DesiredSpeed: s.DesiredSpeed,
		Aggression:   s.Aggression,
		Patience:     s.Patience,
		WithBody:     s.RigidBody,
	}
}

// LoadVehicleSpec loads a vehicle class by spec file name.
func LoadVehicleSpec(name string) (VehicleSpec, error) {
	return LoadSpec[VehicleSpec](name)
}

// PedestrianSpec is the YAML tuning for pedestrians.
type PedestrianSpec struct {
	Name      string  `yaml:"name"`
	WalkSpeed float64 `yaml:"walk_speed"`
	RunSpeed  float64 `yaml:"run_speed"`
	Radius    float64 `yaml:"radius"`
	Mass      float64 `yaml:"mass"`
}

// Params converts the spec into spawn parameters.
func (s PedestrianSpec) Params() sim.PedestrianParams {
	return sim.PedestrianParams{
		WalkSpeed: s.WalkSpeed,
		RunSpeed:  s.RunSpeed,
		Radius:    s.Radius,
		Mass:      s.Mass,
	}
}

// LoadPedestrianSpec loads the pedestrian tuning.
func LoadPedestrianSpec() (PedestrianSpec, error) {
	return LoadSpec[PedestrianSpec]("pedestrian.yaml")
}

// SurfaceSpec is one surface's modifiers in surfaces.yaml.
type SurfaceSpec struct {
	Grip        float64 `yaml:"grip"`
	Friction    float64 `yaml:"friction"`
	SpeedFactor float64 `yaml:"speed_factor"`
}

// SurfacesSpec maps surface names to modifiers.
type SurfacesSpec struct {
	Surfaces map[string]SurfaceSpec `yaml:"surfaces"`
}

var surfacesByName = map[string]citymap.SurfaceClass{
	"open":      citymap.SurfaceOpen,
	"road":      citymap.SurfaceRoad,
	"sidewalk":  citymap.SurfaceSidewalk,
	"crosswalk": citymap.SurfaceCrosswalk,
	"grass":     citymap.SurfaceGrass,
	"dirt":      citymap.SurfaceDirt,
	"sand":      citymap.SurfaceSand,
	"ice":       citymap.SurfaceIce,
	"water":     citymap.SurfaceWater,
}

// ApplySurfaces overlays surfaces.yaml onto a surface table. Entries
// violating the modifier invariants are rejected with an error.
func ApplySurfaces(table *citymap.SurfaceTable) error {
	spec, err := LoadSpec[SurfacesSpec]("surfaces.yaml")
	if err != nil {
		return err
	}
	for name, s := range spec.Surfaces {
		class, ok := surfacesByName[name]
		if !ok {
			return fmt.Errorf("prefabs: surfaces.yaml: unknown surface %q", name)
		}
		if !table.Set(class, citymap.SurfaceModifiers{
			Grip:        s.Grip,
			Friction:    s.Friction,
			SpeedFactor: s.SpeedFactor,
		}) {
			return fmt.Errorf("prefabs: surfaces.yaml: %q: grip must be in (0,1], speed_factor > 0", name)
		}
	}
	return nil
}
