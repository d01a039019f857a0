package fuse

import "reflect"

type Command func(world *World)

type EntityCommand func(world *World, entityId EntityId)

// Commands queues deferred commands against a world. It allows you to
// spawn and despawn entities, add and remove records, register observers
// and emit events. It must be injected as a pointer into a system.
type Commands struct {
	world *World
	queue []Command
}

func (c *Commands) applyToWorld() {
	for len(c.queue) > 0 {
		command := c.queue[0]
		c.queue = c.queue[1:]

		command(c.world)

		// apply lifecycle updates the command may have deferred before
		// the next command runs
		c.world.flushQueued()
	}
}

func (c *Commands) Queue(command Command) *Commands {
	c.queue = append(c.queue, command)
	return c
}

func (c *Commands) Spawn(components ...any) EntityCommands {
	entityId := c.world.store.Reserve()

	c.Queue(func(world *World) {
		world.spawnReserved(entityId, components)
	})

	return EntityCommands{
		entityId: entityId,
		commands: c,
	}
}

func (c *Commands) Entity(entityId EntityId) EntityCommands {
	return EntityCommands{
		entityId: entityId,
		commands: c,
	}
}

type EntityCommands struct {
	entityId EntityId
	commands *Commands
}

func (e EntityCommands) Id() EntityId {
	return e.entityId
}

func (e EntityCommands) Update(commands ...EntityCommand) EntityCommands {
	e.commands.Queue(func(world *World) {
		for _, command := range commands {
			command(world, e.entityId)
		}
	})

	return e
}

func (e EntityCommands) Insert(components ...any) EntityCommands {
	return e.Update(func(world *World, entityId EntityId) {
		for _, component := range components {
			world.insertComponent(entityId, component)
		}
	})
}

func (e EntityCommands) Remove(componentIds ...ComponentId) EntityCommands {
	return e.Update(func(world *World, entityId EntityId) {
		for _, componentId := range componentIds {
			world.store.Remove(entityId, componentId)
		}
	})
}

func (e EntityCommands) Despawn() {
	e.commands.Queue(func(world *World) {
		world.Despawn(e.entityId)
	})
}

// Observe spawns a new observer scoped to this entity. The event kind is
// taken from the callbacks On parameter.
func (e EntityCommands) Observe(callback AnySystem) EntityCommands {
	eventType := observedEventTypeOf(callback)
	rejectExclusive(reflect.TypeOf(callback))

	return e.Update(func(world *World, entityId EntityId) {
		descriptor := observerDescriptor{
			sources: []EntityId{entityId},
		}

		if eventType != reflect.TypeFor[NoEvent]() {
			descriptor.events = append(descriptor.events, mustEventId(world, eventType))
		}

		observerId := world.store.Spawn(NoEntityId)
		world.store.Insert(observerId, newObserverState(world, descriptor, callback))
	})
}

// Trigger emits an event of a dynamic type targeting this entity.
func (e EntityCommands) Trigger(eventValue any) EntityCommands {
	return e.Update(func(world *World, entityId EntityId) {
		world.Trigger(eventValue, entityId)
	})
}
