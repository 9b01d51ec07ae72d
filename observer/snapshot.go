package observer

import (
	"blockcity/ecs"
	"blockcity/ecs/component"
	"blockcity/sim"
)

// AgentState is the per-agent slice of a snapshot frame.
type AgentState struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Level    int     `json:"level"`
	Rotation float64 `json:"rot"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	Kind     string  `json:"kind"`
	State    string  `json:"state,omitempty"`
	Drifting bool    `json:"drifting,omitempty"`
}

// Snapshot is one world frame.
type Snapshot struct {
	Tick   uint64       `json:"tick"`
	Agents []AgentState `json:"agents"`
}

// EventFrame wraps drained tick events for the wire.
type EventFrame struct {
	Tick   uint64      `json:"tick"`
	Events []WireEvent `json:"events"`
}

// WireEvent is the JSON shape of one typed event.
type WireEvent struct {
	Type        string  `json:"type"`
	A           string  `json:"a,omitempty"`
	B           string  `json:"b,omitempty"`
	From        string  `json:"from,omitempty"`
	To          string  `json:"to,omitempty"`
	Impact      float64 `json:"impact,omitempty"`
	Penetration float64 `json:"penetration,omitempty"`
	Pass        string  `json:"pass,omitempty"`
	Reason      string  `json:"reason,omitempty"`
}

// BuildSnapshot captures the readable component state of every agent.
func BuildSnapshot(s *sim.Sim) Snapshot {
	snap := Snapshot{Tick: s.Tick()}
	ecs.ForEach2(s.World, component.TransformComponent, component.KinematicsComponent,
		func(e ecs.Entity, t *component.Transform, k *component.Kinematics) {
			a := AgentState{
				ID:       e.String(),
				X:        t.X,
				Y:        t.Y,
				Level:    t.Level,
				Rotation: t.Rotation,
				VX:       k.VX,
				VY:       k.VY,
				Kind:     "prop",
			}
			if ped, ok := ecs.Get(s.World, e, component.PedestrianAIComponent); ok {
				a.Kind = "pedestrian"
				if ped.State != nil {
					a.State = ped.State.Kind().String()
				}
			} else if tr, ok := ecs.Get(s.World, e, component.TrafficAIComponent); ok {
				a.Kind = "vehicle"
				if tr.State != nil {
					a.State = tr.State.Kind().String()
				}
				if vp, ok := ecs.Get(s.World, e, component.VehicleProfileComponent); ok {
					a.Drifting = vp.Drifting
				}
			} else if ecs.Has(s.World, e, component.PlayerControlledComponent) {
				a.Kind = "player"
			}
			snap.Agents = append(snap.Agents, a)
		})
	return snap
}

// BuildEventFrame converts drained tick events to the wire shape.
func BuildEventFrame(tick uint64, events []ecs.Event) EventFrame {
	frame := EventFrame{Tick: tick}
	for _, ev := range events {
		switch ev := ev.(type) {
		case ecs.CollisionEvent:
			we := WireEvent{
				Type:        "collision",
				A:           ev.A.String(),
				Impact:      ev.Impact,
				Penetration: ev.Penetration,
			}
			if ev.B.Valid() {
				we.B = ev.B.String()
			}
			frame.Events = append(frame.Events, we)
		case ecs.PedestrianStateEvent:
			frame.Events = append(frame.Events, WireEvent{
				Type: "pedestrian_state",
				A:    ev.Entity.String(),
				From: ev.From.String(),
				To:   ev.To.String(),
			})
		case ecs.TrafficStateEvent:
			frame.Events = append(frame.Events, WireEvent{
				Type: "traffic_state",
				A:    ev.Entity.String(),
				From: ev.From.String(),
				To:   ev.To.String(),
			})
		case ecs.AgentSkippedEvent:
			frame.Events = append(frame.Events, WireEvent{
				Type:   "agent_skipped",
				A:      ev.Entity.String(),
				Pass:   ev.Pass,
				Reason: ev.Reason,
			})
		}
	}
	return frame
}
