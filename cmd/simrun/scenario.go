package main

import (
	"fmt"
	"os"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"blockcity/citymap"
	"blockcity/prefabs"
	"blockcity/sim"
)

// runScenario executes a tengo script that sets up (and may partially
// run) the simulation. Builtins exposed to the script:
//
//	spawn_pedestrian(x, y [, level])      -> entity id string
//	spawn_vehicle(x, y [, class [, lvl]]) -> entity id string
//	spawn_player(x, y, speed)             -> entity id string
//	spawn_prop(x, y, width, height)       -> entity id string
//	set_block(x, y, z, type_name)
//	ticks(n)
//	tick()                                -> current tick
//	log(msg)
func runScenario(run *runner, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scenario: %w", err)
	}

	sc := &scenarioEnv{run: run, vehicles: map[string]sim.VehicleParams{}}

	script := tengo.NewScript(src)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	for name, fn := range sc.builtins() {
		if err := script.Add(name, fn); err != nil {
			return fmt.Errorf("register builtin %s: %w", name, err)
		}
	}

	run.log.WithField("scenario", path).Info("running scenario")
	if _, err := script.Run(); err != nil {
		return fmt.Errorf("run scenario %s: %w", path, err)
	}
	return nil
}

type scenarioEnv struct {
	run        *runner
	vehicles   map[string]sim.VehicleParams
	pedestrian *sim.PedestrianParams
}

func (sc *scenarioEnv) builtins() map[string]*tengo.UserFunction {
	return map[string]*tengo.UserFunction{
		"spawn_pedestrian": {Name: "spawn_pedestrian", Value: sc.spawnPedestrian},
		"spawn_vehicle":    {Name: "spawn_vehicle", Value: sc.spawnVehicle},
		"spawn_player":     {Name: "spawn_player", Value: sc.spawnPlayer},
		"spawn_prop":       {Name: "spawn_prop", Value: sc.spawnProp},
		"set_block":        {Name: "set_block", Value: sc.setBlock},
		"ticks":            {Name: "ticks", Value: sc.ticks},
		"tick":             {Name: "tick", Value: sc.tick},
		"log":              {Name: "log", Value: sc.logMsg},
	}
}

func (sc *scenarioEnv) pedestrianParams() (sim.PedestrianParams, error) {
	if sc.pedestrian != nil {
		return *sc.pedestrian, nil
	}
	spec, err := prefabs.LoadPedestrianSpec()
	if err != nil {
		return sim.PedestrianParams{}, err
	}
	p := spec.Params()
	sc.pedestrian = &p
	return p, nil
}

func (sc *scenarioEnv) vehicleParams(class string) (sim.VehicleParams, error) {
	if p, ok := sc.vehicles[class]; ok {
		return p, nil
	}
	spec, err := prefabs.LoadVehicleSpec("vehicle_" + class + ".yaml")
	if err != nil {
		return sim.VehicleParams{}, err
	}
	p := spec.Params()
	sc.vehicles[class] = p
	return p, nil
}

func (sc *scenarioEnv) spawnPedestrian(args ...tengo.Object) (tengo.Object, error) {
	x, y, err := floatPair(args, "spawn_pedestrian")
	if err != nil {
		return nil, err
	}
	level := optionalInt(args, 2, 0)
	p, err := sc.pedestrianParams()
	if err != nil {
		return nil, err
	}
	e, err := sc.run.sim.SpawnPedestrian(x, y, level, p)
	if err != nil {
		return nil, err
	}
	return &tengo.String{Value: e.String()}, nil
}

func (sc *scenarioEnv) spawnVehicle(args ...tengo.Object) (tengo.Object, error) {
	x, y, err := floatPair(args, "spawn_vehicle")
	if err != nil {
		return nil, err
	}
	class := "car"
	if len(args) > 2 {
		s, ok := tengo.ToString(args[2])
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "class", Expected: "string"}
		}
		class = s
	}
	level := optionalInt(args, 3, 0)
	p, err := sc.vehicleParams(class)
	if err != nil {
		return nil, err
	}
	e, err := sc.run.sim.SpawnVehicle(x, y, level, p)
	if err != nil {
		return nil, err
	}
	return &tengo.String{Value: e.String()}, nil
}

func (sc *scenarioEnv) spawnPlayer(args ...tengo.Object) (tengo.Object, error) {
	x, y, err := floatPair(args, "spawn_player")
	if err != nil {
		return nil, err
	}
	speed := 80.0
	if len(args) > 2 {
		v, ok := tengo.ToFloat64(args[2])
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "speed", Expected: "float"}
		}
		speed = v
	}
	e, err := sc.run.sim.SpawnPlayer(x, y, 0, speed)
	if err != nil {
		return nil, err
	}
	return &tengo.String{Value: e.String()}, nil
}

func (sc *scenarioEnv) spawnProp(args ...tengo.Object) (tengo.Object, error) {
	if len(args) < 4 {
		return nil, tengo.ErrWrongNumArguments
	}
	x, y, err := floatPair(args, "spawn_prop")
	if err != nil {
		return nil, err
	}
	w, ok := tengo.ToFloat64(args[2])
	if !ok {
		return nil, tengo.ErrInvalidArgumentType{Name: "width", Expected: "float"}
	}
	h, ok := tengo.ToFloat64(args[3])
	if !ok {
		return nil, tengo.ErrInvalidArgumentType{Name: "height", Expected: "float"}
	}
	e, err := sc.run.sim.SpawnProp(x, y, 0, w, h)
	if err != nil {
		return nil, err
	}
	return &tengo.String{Value: e.String()}, nil
}

// setBlock edits the map, then rebuilds the road network and clears the
// path cache so agents see the new layout.
func (sc *scenarioEnv) setBlock(args ...tengo.Object) (tengo.Object, error) {
	if len(args) != 4 {
		return nil, tengo.ErrWrongNumArguments
	}
	bx, okX := tengo.ToInt(args[0])
	by, okY := tengo.ToInt(args[1])
	bz, okZ := tengo.ToInt(args[2])
	name, okN := tengo.ToString(args[3])
	if !okX || !okY || !okZ || !okN {
		return nil, tengo.ErrInvalidArgumentType{Name: "set_block", Expected: "int, int, int, string"}
	}
	t, ok := citymap.BlockTypeByName(name)
	if !ok {
		return nil, fmt.Errorf("set_block: unknown block type %q", name)
	}
	g, ok := sc.run.sim.Map.(*citymap.GridMap)
	if !ok {
		return nil, fmt.Errorf("set_block: map is not editable")
	}
	g.SetBlock(bx, by, bz, t)
	sc.run.sim.Nav.RebuildNetwork()
	sc.run.sim.Nav.Pathfinder.ClearCache()
	return tengo.TrueValue, nil
}

func (sc *scenarioEnv) ticks(args ...tengo.Object) (tengo.Object, error) {
	if len(args) != 1 {
		return nil, tengo.ErrWrongNumArguments
	}
	n, ok := tengo.ToInt(args[0])
	if !ok || n < 0 {
		return nil, tengo.ErrInvalidArgumentType{Name: "n", Expected: "int >= 0"}
	}
	for i := 0; i < n; i++ {
		sc.run.step()
	}
	return tengo.UndefinedValue, nil
}

func (sc *scenarioEnv) tick(args ...tengo.Object) (tengo.Object, error) {
	return &tengo.Int{Value: int64(sc.run.sim.Tick())}, nil
}

func (sc *scenarioEnv) logMsg(args ...tengo.Object) (tengo.Object, error) {
	if len(args) != 1 {
		return nil, tengo.ErrWrongNumArguments
	}
	msg, _ := tengo.ToString(args[0])
	sc.run.log.WithField("tick", sc.run.sim.Tick()).Info(msg)
	return tengo.UndefinedValue, nil
}

func floatPair(args []tengo.Object, name string) (float64, float64, error) {
	if len(args) < 2 {
		return 0, 0, tengo.ErrWrongNumArguments
	}
	x, okX := tengo.ToFloat64(args[0])
	y, okY := tengo.ToFloat64(args[1])
	if !okX || !okY {
		return 0, 0, tengo.ErrInvalidArgumentType{Name: name, Expected: "float, float"}
	}
	return x, y, nil
}

func optionalInt(args []tengo.Object, idx, def int) int {
	if len(args) <= idx {
		return def
	}
	if v, ok := tengo.ToInt(args[idx]); ok {
		return v
	}
	return def
}
