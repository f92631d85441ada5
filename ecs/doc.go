// Package ecs bridges m2c2 pointer events into an entity component system.
//
// The primary adapter is [NewDonburiStore], which forwards pointer events
// on nodes with an EntityID (tap, pointer, drag) into a [Donburi] world as
// typed events. Subscribe to [InteractionEventType] in your ECS systems to
// receive them, and use [Link] to give a node its own entity.
//
// Usage:
//
//	world := donburi.NewWorld()
//	game.SetEntityStore(ecs.NewDonburiStore(world))
//	ecs.Link(world, target)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
