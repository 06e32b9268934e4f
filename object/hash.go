package object

import (
	"fmt"
	"strings"
)

// HashPair keeps the original key object alongside its value so Describe
// and iteration over keys can render the key faithfully (the HashKey
// struct alone has thrown away the original string/bool/etc).
type HashPair struct {
	Key   Object
	Value Object
}

// HashTable maps hashable keys to objects. Go's map iteration order is
// randomized per run; the spec leaves hash iteration order unspecified,
// so that randomness is the documented behavior, not a bug.
type HashTable struct {
	Pairs map[HashKey]HashPair
}

// NewHashTable constructs an empty hash table.
func NewHashTable() *HashTable {
	return &HashTable{Pairs: make(map[HashKey]HashPair)}
}

func (h *HashTable) Type() ObjectType { return HashObj }

func (h *HashTable) Describe() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for _, pair := range h.Pairs {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(Describe(pair.Key))
		sb.WriteString(": ")
		sb.WriteString(Describe(pair.Value))
	}
	sb.WriteByte('}')
	return sb.String()
}

func (h *HashTable) Truthy() bool { return len(h.Pairs) > 0 }

func (h *HashTable) Equals(o Object) bool {
	other, ok := o.(*HashTable)
	if !ok || len(other.Pairs) != len(h.Pairs) {
		return false
	}
	for k, pair := range h.Pairs {
		otherPair, ok := other.Pairs[k]
		if !ok {
			return false
		}
		eq, ok := pair.Value.(Equatable)
		if !ok || !eq.Equals(otherPair.Value) {
			return false
		}
	}
	return true
}

// hashableKey resolves an admissible key object to its HashKey, failing
// with a type error for unhashable keys (arrays, hashes, closures, ...).
func hashableKey(key Object) (HashKey, error) {
	hashable, ok := key.(Hashable)
	if !ok {
		return HashKey{}, fmt.Errorf("unusable as hash key: %s", key.Type())
	}
	return hashable.HashKey(), nil
}

// GetIndexed performs key lookup; a missing key is an index error.
func (h *HashTable) GetIndexed(index Object) (Object, error) {
	key, err := hashableKey(index)
	if err != nil {
		return nil, err
	}
	pair, ok := h.Pairs[key]
	if !ok {
		return nil, fmt.Errorf("key not found: %s", Describe(index))
	}
	return pair.Value, nil
}

// SetIndexed inserts or overwrites a key's value in place.
func (h *HashTable) SetIndexed(index Object, value Object) error {
	key, err := hashableKey(index)
	if err != nil {
		return err
	}
	h.Pairs[key] = HashPair{Key: index, Value: value}
	return nil
}

// ShallowClone returns a new HashTable with the same key/value pairs,
// used by the SetIndex instruction handler's rebind-on-write policy.
func (h *HashTable) ShallowClone() *HashTable {
	pairs := make(map[HashKey]HashPair, len(h.Pairs))
	for k, v := range h.Pairs {
		pairs[k] = v
	}
	return &HashTable{Pairs: pairs}
}

// Len returns the pair count, used by the `length` built-in and the
// `len` hash attribute method.
func (h *HashTable) Len() int { return len(h.Pairs) }

// Keys returns the hash's keys as an Array, in the Go map's (unstable)
// iteration order.
func (h *HashTable) Keys() *Array {
	elems := make([]Object, 0, len(h.Pairs))
	for _, pair := range h.Pairs {
		elems = append(elems, pair.Key)
	}
	return &Array{Elements: elems}
}

// Values returns the hash's values as an Array, in the Go map's
// (unstable) iteration order.
func (h *HashTable) Values() *Array {
	elems := make([]Object, 0, len(h.Pairs))
	for _, pair := range h.Pairs {
		elems = append(elems, pair.Value)
	}
	return &Array{Elements: elems}
}

// Has reports whether a key is present.
func (h *HashTable) Has(key Object) bool {
	k, err := hashableKey(key)
	if err != nil {
		return false
	}
	_, ok := h.Pairs[k]
	return ok
}

// ResolveGetAttr implements attribute-path lookup for GetAttr: a
// single-name path performs key lookup; a multi-name path descends into
// nested hashes, left to right.
func (h *HashTable) ResolveGetAttr(path []string) (Object, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("empty attribute path")
	}
	current := Object(h)
	for _, name := range path {
		ht, ok := current.(*HashTable)
		if !ok {
			return nil, fmt.Errorf("cannot resolve attribute %q on non-hash %s", name, current.Type())
		}
		val, err := ht.GetIndexed(&String{Value: name})
		if err != nil {
			return nil, fmt.Errorf("attribute %q not found", name)
		}
		current = val
	}
	return current, nil
}

// ResolveCallAttr implements CallAttr: a single-name path that names a
// built-in method (keys, values, len, has) invokes that method;
// multi-name paths descend into nested hashes before the final call.
func (h *HashTable) ResolveCallAttr(path []string, args []Object) (Object, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("empty attribute path")
	}
	current := h
	for _, name := range path[:len(path)-1] {
		val, err := current.GetIndexed(&String{Value: name})
		if err != nil {
			return nil, fmt.Errorf("attribute %q not found", name)
		}
		nested, ok := val.(*HashTable)
		if !ok {
			return nil, fmt.Errorf("cannot resolve attribute %q on non-hash %s", name, val.Type())
		}
		current = nested
	}

	method := path[len(path)-1]
	switch method {
	case "keys":
		return current.Keys(), nil
	case "values":
		return current.Values(), nil
	case "len":
		return &Integer{Value: int64(current.Len())}, nil
	case "has":
		if len(args) != 1 {
			return nil, fmt.Errorf("has expects 1 argument, got %d", len(args))
		}
		return NativeBool(current.Has(args[0])), nil
	default:
		return nil, fmt.Errorf("unknown hash method %q", method)
	}
}
