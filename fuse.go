// Package fuse implements reactive observers over an entity store.
//
// Observers are entities holding an observer record. They are registered
// against a set of event kinds, component kinds and source entities, and
// react to matching emissions. Both registration and emission are deferred
// through a command queue, so they are safe to perform from within a
// running observer callback.
package fuse

import "github.com/calder-games/fuse/wick"

type EntityId = wick.EntityId

const NoEntityId = wick.NoEntityId

// PlaceholderEntityId marks a source entity that was never resolved.
// Observer runners ignore triggers carrying it.
const PlaceholderEntityId = wick.PlaceholderEntityId

type ComponentId = wick.ComponentId

// EventId identifies a registered event kind. Event and component kinds
// share one identifier space.
type EventId = wick.ComponentId

type AnyPtr = any
