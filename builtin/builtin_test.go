package builtin

import (
	"testing"

	"orrery/object"
	"orrery/platform"
)

type fakeGlobals struct {
	slots []object.Object
}

func (g *fakeGlobals) Get(i int) object.Object { return g.slots[i] }
func (g *fakeGlobals) Set(obj object.Object, i int) error {
	g.slots[i] = obj
	return nil
}
func (g *fakeGlobals) Size() int { return len(g.slots) }

type fakeThreads struct{}

func (fakeThreads) Spawn(cl *object.Closure, args []object.Object) (*object.ThreadHandle, error) {
	return nil, nil
}
func (fakeThreads) Wait(h *object.ThreadHandle, timeoutMs *float64) (object.Object, error) {
	return nil, nil
}
func (fakeThreads) IsDone(h *object.ThreadHandle) bool { return false }
func (fakeThreads) Cancel(h *object.ThreadHandle) error { return nil }

func TestLengthBuiltin(t *testing.T) {
	def, _, ok := GetByName("length")
	if !ok {
		t.Fatal("length builtin not registered")
	}
	result, err := def.Fn([]object.Object{&object.String{Value: "hello"}}, platform.NewStub(), &fakeGlobals{}, nil, fakeThreads{})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if result.(*object.Integer).Value != 5 {
		t.Errorf("expected length 5, got %s", result.Describe())
	}
}

func TestAssertBuiltinFailsWithMessage(t *testing.T) {
	def, _, _ := GetByName("assert")
	_, err := def.Fn([]object.Object{object.FALSE, &object.String{Value: "mismatch"}}, platform.NewStub(), &fakeGlobals{}, nil, fakeThreads{})
	if err == nil {
		t.Fatal("expected assertion to fail")
	}
	if got := err.Error(); !contains(got, "mismatch") {
		t.Errorf("expected error to contain %q, got %q", "mismatch", got)
	}
}

func TestRangeBuiltinYieldsIterator(t *testing.T) {
	def, _, _ := GetByName("range")
	result, err := def.Fn([]object.Object{&object.Integer{Value: 0}, &object.Integer{Value: 3}}, platform.NewStub(), &fakeGlobals{}, nil, fakeThreads{})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	it, ok := result.(*object.Iterator)
	if !ok {
		t.Fatalf("expected an iterator, got %T", result)
	}
	var collected []int64
	for {
		elem, ok := it.Next()
		if !ok {
			break
		}
		collected = append(collected, elem.(*object.Integer).Value)
	}
	if len(collected) != 3 || collected[0] != 0 || collected[2] != 2 {
		t.Errorf("expected [0 1 2], got %v", collected)
	}
}

func TestGetByIndexStable(t *testing.T) {
	_, idx, ok := GetByName("print")
	if !ok {
		t.Fatal("print not registered")
	}
	def := GetByIndex(idx)
	if def == nil || def.Name != "print" {
		t.Errorf("expected GetByIndex(%d) to resolve back to print", idx)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
