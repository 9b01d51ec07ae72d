package system

import (
	"io"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"

	"blockcity/citymap"
	"blockcity/ecs"
	"blockcity/ecs/component"
	"blockcity/nav"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func uniformMap(w, h int, t citymap.BlockType) *citymap.GridMap {
	g := citymap.NewGridMap(w, h, 1)
	for by := 0; by < h; by++ {
		for bx := 0; bx < w; bx++ {
			g.SetBlock(bx, by, 0, t)
		}
	}
	return g
}

func testNav(t *testing.T, m citymap.Map) *nav.Context {
	t.Helper()
	return nav.NewContext(m, rand.New(rand.NewSource(1)))
}

func addAgent(t *testing.T, w *ecs.World, x, y float64, c component.Collider) ecs.Entity {
	t.Helper()
	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.TransformComponent, &component.Transform{X: x, Y: y}); err != nil {
		t.Fatal(err)
	}
	if err := ecs.Add(w, e, component.KinematicsComponent, &component.Kinematics{}); err != nil {
		t.Fatal(err)
	}
	if err := ecs.Add(w, e, component.ColliderComponent, &c); err != nil {
		t.Fatal(err)
	}
	return e
}

func pedCollider(radius, mass float64) component.Collider {
	return component.Collider{
		Shape:  component.ShapeCircle,
		Radius: radius,
		Layer:  component.LayerPedestrian,
		Mask:   component.LayerPedestrian | component.LayerVehicle | component.LayerProp,
		Mass:   mass,
	}
}

func carCollider(width, height, mass float64) component.Collider {
	return component.Collider{
		Shape:  component.ShapeBox,
		Width:  width,
		Height: height,
		Layer:  component.LayerVehicle,
		Mask:   component.LayerPedestrian | component.LayerVehicle | component.LayerProp,
		Mass:   mass,
	}
}

func setVelocity(t *testing.T, w *ecs.World, e ecs.Entity, vx, vy float64) {
	t.Helper()
	k, ok := ecs.Get(w, e, component.KinematicsComponent)
	if !ok {
		t.Fatal("entity has no kinematics")
	}
	k.VX, k.VY = vx, vy
}

func position(t *testing.T, w *ecs.World, e ecs.Entity) (float64, float64) {
	t.Helper()
	tr, ok := ecs.Get(w, e, component.TransformComponent)
	if !ok {
		t.Fatal("entity has no transform")
	}
	return tr.X, tr.Y
}

func velocity(t *testing.T, w *ecs.World, e ecs.Entity) (float64, float64) {
	t.Helper()
	k, ok := ecs.Get(w, e, component.KinematicsComponent)
	if !ok {
		t.Fatal("entity has no kinematics")
	}
	return k.VX, k.VY
}
