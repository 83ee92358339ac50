// Package resource provides the per-operation identity map.
package resource

import "github.com/CaliLuke/go-jsonapi/wire"

// identityMap is an insertion-ordered table keyed by resource identifier.
// One map lives for the duration of a single marshal or unmarshal operation
// and is never shared across operations: the serializer fills it with
// resource objects bound for the included member, the deserializer with the
// one instance standing for each identifier.
type identityMap[T any] struct {
	keys  []wire.Identifier
	items map[wire.Identifier]T
}

func newIdentityMap[T any]() *identityMap[T] {
	return &identityMap[T]{items: make(map[wire.Identifier]T)}
}

// put records item under id if the identifier is not already present and
// reports whether it was inserted.
func (m *identityMap[T]) put(id wire.Identifier, item T) bool {
	if _, ok := m.items[id]; ok {
		return false
	}
	m.items[id] = item
	m.keys = append(m.keys, id)
	return true
}

// get returns the item recorded under id.
func (m *identityMap[T]) get(id wire.Identifier) (T, bool) {
	item, ok := m.items[id]
	return item, ok
}

// has reports whether id is recorded.
func (m *identityMap[T]) has(id wire.Identifier) bool {
	_, ok := m.items[id]
	return ok
}

// len reports the number of recorded identifiers.
func (m *identityMap[T]) len() int {
	return len(m.keys)
}

// ordered returns the items in insertion order.
func (m *identityMap[T]) ordered() []T {
	out := make([]T, 0, len(m.keys))
	for _, id := range m.keys {
		out = append(out, m.items[id])
	}
	return out
}
