package state

import (
	"maps"
	"slices"

	"github.com/backbone81/durable-kv/internal/encoding"
)

// State maps keys to their current values.
type State map[string][]byte

// Fold applies the operations in order to an empty state.
func Fold(operations []encoding.Operation) State {
	state := make(State, len(operations))
	for _, operation := range operations {
		state.Apply(operation)
	}
	return state
}

// Apply changes the state according to the operation. Operations of unknown kind are ignored.
func (s State) Apply(operation encoding.Operation) {
	switch operation.Kind {
	case encoding.OperationKindSet:
		s[operation.Key] = operation.Value
	case encoding.OperationKindDelete:
		delete(s, operation.Key)
	}
}

// Keys returns all keys in sorted order.
func (s State) Keys() []string {
	return slices.Sorted(maps.Keys(s))
}

// Clone returns a copy of the state which shares no memory with the original.
func (s State) Clone() State {
	clone := make(State, len(s))
	for key, value := range s {
		clone[key] = slices.Clone(value)
	}
	return clone
}
