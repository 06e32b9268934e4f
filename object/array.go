package object

import (
	"fmt"
	"strings"
)

// Array is a mutable ordered sequence of objects. It is always handled
// by pointer, so a shared reference (e.g. the same array bound to two
// globals) observes in-place mutation the way the spec requires for
// GetIndex/SetIndex performed through array methods directly (as opposed
// to the SetIndex *instruction*, which rebinds the location per §9's
// shallow-copy policy — see vm/controls.go).
type Array struct {
	Elements []Object
}

func (a *Array) Type() ObjectType { return ArrayObj }

func (a *Array) Describe() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range a.Elements {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(Describe(e))
	}
	sb.WriteByte(']')
	return sb.String()
}

func (a *Array) Truthy() bool { return len(a.Elements) > 0 }

func (a *Array) Equals(o Object) bool {
	other, ok := o.(*Array)
	if !ok || len(other.Elements) != len(a.Elements) {
		return false
	}
	for i, e := range a.Elements {
		eq, ok := e.(Equatable)
		if !ok || !eq.Equals(other.Elements[i]) {
			return false
		}
	}
	return true
}

// GetIndexed returns the element at a zero-based index, negative indices
// counting from the end of the array.
func (a *Array) GetIndexed(index Object) (Object, error) {
	i, ok := index.(*Integer)
	if !ok {
		return nil, fmt.Errorf("array index must be an integer, got %s", index.Type())
	}
	idx := normalizeIndex(i.Value, len(a.Elements))
	if idx < 0 || idx >= len(a.Elements) {
		return nil, fmt.Errorf("index %d out of range for array of length %d", i.Value, len(a.Elements))
	}
	return a.Elements[idx], nil
}

// SetIndexed mutates the element at a zero-based index in place.
func (a *Array) SetIndexed(index Object, value Object) error {
	i, ok := index.(*Integer)
	if !ok {
		return fmt.Errorf("array index must be an integer, got %s", index.Type())
	}
	idx := normalizeIndex(i.Value, len(a.Elements))
	if idx < 0 || idx >= len(a.Elements) {
		return fmt.Errorf("index %d out of range for array of length %d", i.Value, len(a.Elements))
	}
	a.Elements[idx] = value
	return nil
}

// ShallowClone returns a new Array sharing the same element references,
// used by the SetIndex instruction handler's rebind-on-write policy.
func (a *Array) ShallowClone() *Array {
	elements := make([]Object, len(a.Elements))
	copy(elements, a.Elements)
	return &Array{Elements: elements}
}

// Len returns the element count, used by the `length` built-in.
func (a *Array) Len() int { return len(a.Elements) }
