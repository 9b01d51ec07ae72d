package ecs

import (
	"testing"

	"blockcity/ecs/component"
)

func intPtr(i int) *int {
	return &i
}

func stringPtr(s string) *string {
	return &s
}

func TestEntityLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_create_destroy_middle", 3, 1},
		{"none_destroyed", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld()
			ents := make([]Entity, 0, c.create)
			for i := 0; i < c.create; i++ {
				ents = append(ents, CreateEntity(w))
			}
			if len(Entities(w)) != c.create {
				t.Fatalf("expected %d entities, got %d", c.create, len(Entities(w)))
			}
			if c.destroyIndex >= 0 {
				if !DestroyEntity(w, ents[c.destroyIndex]) {
					t.Fatalf("DestroyEntity should return true for alive entity")
				}
				if IsAlive(w, ents[c.destroyIndex]) {
					t.Fatalf("entity should not be alive after destruction")
				}
				if DestroyEntity(w, ents[c.destroyIndex]) {
					t.Fatalf("double destroy should return false")
				}
				if len(Entities(w)) != c.create-1 {
					t.Fatalf("expected %d entities after destroy, got %d", c.create-1, len(Entities(w)))
				}
			}
		})
	}
}

func TestStaleHandleNeverResolves(t *testing.T) {
	w := NewWorld()
	h := component.New[int]()

	old := CreateEntity(w)
	if err := Add(w, old, h, intPtr(7)); err != nil {
		t.Fatal(err)
	}
	if !DestroyEntity(w, old) {
		t.Fatal("failed to destroy entity")
	}

	// Slot reuse bumps the generation; the old handle must stay dead.
	reused := CreateEntity(w)
	if reused == old {
		t.Fatalf("expected new generation on reused slot, got identical handle %v", reused)
	}
	if IsAlive(w, old) {
		t.Fatal("stale handle reported alive")
	}
	if _, ok := Get(w, old, h); ok {
		t.Fatal("stale handle resolved a component")
	}
	if err := Add(w, old, h, intPtr(1)); err != component.ErrEntityNotAlive {
		t.Fatalf("expected ErrEntityNotAlive, got %v", err)
	}

	if err := Add(w, reused, h, intPtr(42)); err != nil {
		t.Fatal(err)
	}
	v, ok := Get(w, reused, h)
	if !ok || *v != 42 {
		t.Fatalf("expected 42 on reused slot, got %v ok=%v", v, ok)
	}
}

func TestComponentsAndQueries(t *testing.T) {
	w := NewWorld()

	hi := component.New[int]()
	hs := component.New[string]()

	e1 := CreateEntity(w)
	e2 := CreateEntity(w)

	tests := []struct {
		name     string
		setup    func() error
		check    func(t *testing.T)
		teardown func() bool
	}{
		{
			name:  "add_int_to_e1",
			setup: func() error { return Add(w, e1, hi, intPtr(10)) },
			check: func(t *testing.T) {
				v, ok := Get(w, e1, hi)
				if !ok || *v != 10 {
					t.Fatalf("expected 10, got %v ok=%v", v, ok)
				}
			},
			teardown: func() bool { return Remove(w, e1, hi) },
		},
		{
			name: "add_str_to_both",
			setup: func() error {
				if err := Add(w, e1, hs, stringPtr("a")); err != nil {
					return err
				}
				return Add(w, e2, hs, stringPtr("b"))
			},
			check: func(t *testing.T) {
				if !Has(w, e1, hs) || !Has(w, e2, hs) {
					t.Fatalf("expected both entities to have string component")
				}
			},
			teardown: func() bool { return Remove(w, e1, hs) && Remove(w, e2, hs) },
		},
		{
			name:  "nil_component_rejected",
			setup: func() error { return nil },
			check: func(t *testing.T) {
				if err := Add[int](w, e1, hi, nil); err != component.ErrNilComponent {
					t.Fatalf("expected ErrNilComponent, got %v", err)
				}
			},
			teardown: func() bool { return true },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.setup(); err != nil {
				t.Fatalf("setup failed: %v", err)
			}
			tc.check(t)
			if !tc.teardown() {
				t.Fatalf("teardown failed for %s", tc.name)
			}
		})
	}
}

func TestDestroyRemovesAllComponents(t *testing.T) {
	w := NewWorld()
	hi := component.New[int]()
	hs := component.New[string]()

	e := CreateEntity(w)
	if err := Add(w, e, hi, intPtr(1)); err != nil {
		t.Fatal(err)
	}
	if err := Add(w, e, hs, stringPtr("x")); err != nil {
		t.Fatal(err)
	}
	if !DestroyEntity(w, e) {
		t.Fatal("failed to destroy entity")
	}

	var visited int
	ForEach(w, hi, func(Entity, *int) { visited++ })
	ForEach(w, hs, func(Entity, *string) { visited++ })
	if visited != 0 {
		t.Fatalf("expected no components after destroy, visited %d", visited)
	}
}

func TestForEach2(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T)
	}{
		{
			name: "intersection",
			run: func(t *testing.T) {
				w := NewWorld()
				ha := component.New[int]()
				hb := component.New[int]()

				e1 := CreateEntity(w)
				e2 := CreateEntity(w)
				e3 := CreateEntity(w)

				if err := Add(w, e1, ha, intPtr(1)); err != nil {
					t.Fatal(err)
				}
				if err := Add(w, e2, ha, intPtr(2)); err != nil {
					t.Fatal(err)
				}
				if err := Add(w, e2, hb, intPtr(20)); err != nil {
					t.Fatal(err)
				}
				if err := Add(w, e3, hb, intPtr(30)); err != nil {
					t.Fatal(err)
				}

				var res []Entity
				ForEach2(w, ha, hb, func(e Entity, _ *int, _ *int) { res = append(res, e) })
				if len(res) != 1 || res[0] != e2 {
					t.Fatalf("expected only e2, got %v", res)
				}
			},
		},
		{
			name: "ignores_dead_entities",
			run: func(t *testing.T) {
				w := NewWorld()
				ha := component.New[int]()
				hb := component.New[int]()

				e := CreateEntity(w)
				if err := Add(w, e, ha, intPtr(1)); err != nil {
					t.Fatal(err)
				}
				if err := Add(w, e, hb, intPtr(2)); err != nil {
					t.Fatal(err)
				}
				if !DestroyEntity(w, e) {
					t.Fatal("failed to destroy entity")
				}

				var res []Entity
				ForEach2(w, ha, hb, func(e Entity, _ *int, _ *int) { res = append(res, e) })
				if len(res) != 0 {
					t.Fatalf("expected empty result after destroy, got %v", res)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, tc.run)
	}
}

func TestEventQueueDrain(t *testing.T) {
	w := NewWorld()
	e := CreateEntity(w)

	w.Events().Push(CollisionEvent{A: e, NormalX: 1, Penetration: 0.5, Impact: 12})
	w.Events().Push(PedestrianStateEvent{Entity: e, From: component.PedIdleKind, To: component.PedWalkingKind})
	w.Events().Push(AgentSkippedEvent{Entity: e, Pass: "traffic", Reason: "unknown waypoint"})

	if w.Events().Len() != 3 {
		t.Fatalf("expected 3 queued events, got %d", w.Events().Len())
	}

	drained := w.Events().Drain()
	if len(drained) != 3 {
		t.Fatalf("expected 3 drained events, got %d", len(drained))
	}

	col, ok := drained[0].(CollisionEvent)
	if !ok {
		t.Fatalf("expected CollisionEvent first, got %T", drained[0])
	}
	if col.A != e || col.Impact != 12 {
		t.Fatalf("unexpected collision payload: %+v", col)
	}
	ped, ok := drained[1].(PedestrianStateEvent)
	if !ok {
		t.Fatalf("expected PedestrianStateEvent second, got %T", drained[1])
	}
	if ped.From != component.PedIdleKind || ped.To != component.PedWalkingKind {
		t.Fatalf("unexpected transition payload: %+v", ped)
	}

	if got := w.Events().Drain(); got != nil {
		t.Fatalf("second drain should be empty, got %v", got)
	}
}
