package ecs

import "blockcity/ecs/component"

// Event is one tick notification. The set of event types is closed;
// subscribers switch on the concrete type. Publishing never blocks.
type Event interface {
	isEvent()
}

// CollisionEvent is emitted when a contact between two agents, or an
// agent and the map, is resolved. B is zero for map contacts.
type CollisionEvent struct {
	A, B        Entity
	NormalX     float64
	NormalY     float64
	Penetration float64
	Impact      float64
}

// PedestrianStateEvent is emitted on every pedestrian FSM transition.
type PedestrianStateEvent struct {
	Entity Entity
	From   component.PedStateKind
	To     component.PedStateKind
}

// TrafficStateEvent is emitted on every traffic FSM transition.
type TrafficStateEvent struct {
	Entity Entity
	From   component.TrafficStateKind
	To     component.TrafficStateKind
}

// AgentSkippedEvent is emitted when a pass skips an agent that is
// missing an expected component or references an unknown waypoint.
// Degraded behavior is observable here instead of failing the tick.
type AgentSkippedEvent struct {
	Entity Entity
	Pass   string
	Reason string
}

func (CollisionEvent) isEvent()       {}
func (PedestrianStateEvent) isEvent() {}
func (TrafficStateEvent) isEvent()    {}
func (AgentSkippedEvent) isEvent()    {}

// EventQueue is a FIFO drained once per tick by the embedding loop.
type EventQueue struct {
	items []Event
}

func (q *EventQueue) Push(evt Event) {
	if q == nil || evt == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Drain returns all queued events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}
