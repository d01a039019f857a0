package wick

import (
	"log/slog"
	"math"
	"strconv"
)

type EntityId uint32

// NoEntityId marks the absence of an entity, e.g. an emission that
// does not target any entity.
const NoEntityId = EntityId(0)

// PlaceholderEntityId is a sentinel for an entity that was never resolved.
// It is never allocated by a Store.
const PlaceholderEntityId = EntityId(math.MaxUint32)

func (e EntityId) String() string {
	return strconv.Itoa(int(e))
}

func (e EntityId) LogValue() slog.Value {
	return slog.StringValue(e.String())
}
