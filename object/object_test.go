package object

import "testing"

func TestStringHashKey(t *testing.T) {
	hash1 := &String{Value: "Hello World"}
	hash2 := &String{Value: "Hello World"}
	diff1 := &String{Value: "My name is johnny"}
	diff2 := &String{Value: "My name is johnny"}

	if hash1.HashKey() != hash2.HashKey() {
		t.Errorf("strings with same content have different hash keys")
	}
	if diff1.HashKey() != diff2.HashKey() {
		t.Errorf("strings with same content have different hash keys")
	}
	if hash1.HashKey() == diff1.HashKey() {
		t.Errorf("strings with different content have same hash keys")
	}
}

func TestIntegerHashKey(t *testing.T) {
	hash1 := &Integer{Value: 1}
	hash2 := &Integer{Value: 1}
	diff1 := &Integer{Value: 2}

	if hash1.HashKey() != hash2.HashKey() {
		t.Errorf("integers with same content have different hash keys")
	}
	if hash1.HashKey() == diff1.HashKey() {
		t.Errorf("integers with different content have same hash keys")
	}
}

func TestFloatHashKey(t *testing.T) {
	hash1 := &Float{Value: 1.5}
	hash2 := &Float{Value: 1.5}
	diff1 := &Float{Value: 2.5}

	if hash1.HashKey() != hash2.HashKey() {
		t.Errorf("floats with same bit pattern have different hash keys")
	}
	if hash1.HashKey() == diff1.HashKey() {
		t.Errorf("floats with different bit patterns have same hash keys")
	}
}

func TestBooleanHashKey(t *testing.T) {
	hash1 := &Boolean{Value: true}
	hash2 := &Boolean{Value: true}
	diff1 := &Boolean{Value: false}

	if hash1.HashKey() != hash2.HashKey() {
		t.Errorf("booleans with same content have different hash keys")
	}
	if hash1.HashKey() == diff1.HashKey() {
		t.Errorf("booleans with different content have same hash keys")
	}
}

func TestArrayGetIndexedNegative(t *testing.T) {
	arr := &Array{Elements: []Object{&Integer{Value: 1}, &Integer{Value: 2}, &Integer{Value: 3}}}

	got, err := arr.GetIndexed(&Integer{Value: -1})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got.(*Integer).Value != 3 {
		t.Errorf("expected last element 3, got %s", got.Describe())
	}

	_, err = arr.GetIndexed(&Integer{Value: 5})
	if err == nil {
		t.Errorf("expected out-of-range error")
	}
}

func TestArraySetIndexedInPlace(t *testing.T) {
	arr := &Array{Elements: []Object{&Integer{Value: 1}, &Integer{Value: 2}}}
	if err := arr.SetIndexed(&Integer{Value: 0}, &Integer{Value: 9}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if arr.Elements[0].(*Integer).Value != 9 {
		t.Errorf("expected in-place mutation to stick")
	}
	if arr.Len() != 2 {
		t.Errorf("length must be unchanged after SetIndexed")
	}
}

func TestHashTableRoundTrip(t *testing.T) {
	h := NewHashTable()
	key := &String{Value: "a"}
	if err := h.SetIndexed(key, &Integer{Value: 1}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	got, err := h.GetIndexed(key)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got.(*Integer).Value != 1 {
		t.Errorf("expected round-tripped value 1")
	}
}

func TestHashTableUnhashableKey(t *testing.T) {
	h := NewHashTable()
	err := h.SetIndexed(&Array{}, &Integer{Value: 1})
	if err == nil {
		t.Errorf("expected type error inserting unhashable key")
	}
}

func TestHashResolveCallAttr(t *testing.T) {
	h := NewHashTable()
	h.SetIndexed(&String{Value: "a"}, &Integer{Value: 1})
	h.SetIndexed(&String{Value: "b"}, &Integer{Value: 2})

	length, err := h.ResolveCallAttr([]string{"len"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if length.(*Integer).Value != 2 {
		t.Errorf("expected len 2, got %s", length.Describe())
	}

	has, err := h.ResolveCallAttr([]string{"has"}, []Object{&String{Value: "a"}})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !has.Truthy() {
		t.Errorf("expected has(\"a\") to be true")
	}
}

func TestIteratorArrayYieldsAllElementsInOrder(t *testing.T) {
	arr := &Array{Elements: []Object{&Integer{Value: 1}, &Integer{Value: 2}, &Integer{Value: 3}}}
	it := NewArrayIterator(arr)

	var seen []int64
	for {
		elem, ok := it.Next()
		if !ok {
			break
		}
		seen = append(seen, elem.(*Integer).Value)
	}

	if len(seen) != 3 || seen[0] != 1 || seen[1] != 2 || seen[2] != 3 {
		t.Errorf("expected [1 2 3] in order, got %v", seen)
	}
}

func TestIteratorPosIsPreAdvanceCursor(t *testing.T) {
	arr := &Array{Elements: []Object{&Integer{Value: 10}, &Integer{Value: 20}}}
	it := NewArrayIterator(arr)

	if it.Pos() != 0 {
		t.Errorf("expected initial pos 0, got %d", it.Pos())
	}
	it.Next()
	if it.Pos() != 0 {
		t.Errorf("expected pos 0 after first advance, got %d", it.Pos())
	}
	it.Next()
	if it.Pos() != 1 {
		t.Errorf("expected pos 1 after second advance, got %d", it.Pos())
	}
}

func TestThreadResultWaitSemantics(t *testing.T) {
	r := NewThreadResult()
	if r.IsDone() {
		t.Errorf("fresh result should not be done")
	}
	r.Complete(&Integer{Value: 42}, nil)
	if !r.IsDone() {
		t.Errorf("result should be done after Complete")
	}
	val, err := r.Outcome()
	if err != nil || val.(*Integer).Value != 42 {
		t.Errorf("expected outcome (42, nil), got (%v, %v)", val, err)
	}
}
