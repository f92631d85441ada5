package ecs

import (
	"github.com/m2c2kit/m2c2"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"
)

// InteractionEventType is the Donburi event type for m2c2 pointer events.
var InteractionEventType = events.NewEventType[m2c2.InteractionEvent]()

// NodeData links an entity back to the node it was created for.
type NodeData struct {
	Node *m2c2.Node
	UUID string
}

// NodeRef is the component holding a linked node.
var NodeRef = donburi.NewComponentType[NodeData]()

var linkedNodes = donburi.NewQuery(filter.Contains(NodeRef))

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EntityStore backed by a Donburi world.
// Events are queued on InteractionEventType and delivered by
// ProcessEvents.
func NewDonburiStore(world donburi.World) m2c2.EntityStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event m2c2.InteractionEvent) {
	InteractionEventType.Publish(s.world, event)
}

// Link creates an entity carrying NodeRef for n and sets n.EntityID so the
// node's pointer events reach the world.
func Link(world donburi.World, n *m2c2.Node) donburi.Entity {
	e := world.Create(NodeRef)
	NodeRef.SetValue(world.Entry(e), NodeData{Node: n, UUID: n.UUID()})
	n.EntityID = uint32(e.Id())
	return e
}

// NodeOf returns the node linked to the entity an event was emitted for.
func NodeOf(world donburi.World, event m2c2.InteractionEvent) (*m2c2.Node, bool) {
	var found *m2c2.Node
	linkedNodes.Each(world, func(entry *donburi.Entry) {
		if found == nil && uint32(entry.Entity().Id()) == event.EntityID {
			found = NodeRef.Get(entry).Node
		}
	})
	return found, found != nil
}
