package object

import "fmt"

// iterSource is the per-variant cursor-advance rule an Iterator delegates
// to. Each source variant (array, hash keys, string characters, byte
// buffer, numeric range) implements it independently but Iterator
// presents the same Next/Pos surface regardless of which one backs it.
type iterSource interface {
	len() int
	at(i int) Object
}

type arraySource struct{ arr *Array }

func (s arraySource) len() int      { return len(s.arr.Elements) }
func (s arraySource) at(i int) Object { return s.arr.Elements[i] }

type hashKeysSource struct{ keys []Object }

func (s hashKeysSource) len() int        { return len(s.keys) }
func (s hashKeysSource) at(i int) Object { return s.keys[i] }

type stringSource struct{ runes []rune }

func (s stringSource) len() int        { return len(s.runes) }
func (s stringSource) at(i int) Object { return &String{Value: string(s.runes[i])} }

type bytesSource struct{ b []byte }

func (s bytesSource) len() int        { return len(s.b) }
func (s bytesSource) at(i int) Object { return &Integer{Value: int64(s.b[i])} }

type rangeSource struct{ start, stop, step int64 }

func (s rangeSource) len() int {
	if s.step == 0 {
		return 0
	}
	if s.step > 0 {
		if s.stop <= s.start {
			return 0
		}
		return int((s.stop - s.start + s.step - 1) / s.step)
	}
	if s.stop >= s.start {
		return 0
	}
	return int((s.start - s.stop - s.step - 1) / -s.step)
}
func (s rangeSource) at(i int) Object { return &Integer{Value: s.start + int64(i)*s.step} }

// Iterator holds a cursor over an iterable source. next() returns the
// next element or reports exhaustion; pos() returns the cursor value
// prior to the most recent advance.
type Iterator struct {
	source iterSource
	cursor int
}

func (it *Iterator) Type() ObjectType { return IteratorObj }
func (it *Iterator) Describe() string { return fmt.Sprintf("iterator@%d", it.cursor) }
func (it *Iterator) Truthy() bool     { return true }

// Next advances the cursor and returns the element at the pre-advance
// position, or reports exhaustion (ok == false) without mutating the
// cursor further once exhausted.
func (it *Iterator) Next() (Object, bool) {
	if it.cursor >= it.source.len() {
		return nil, false
	}
	elem := it.source.at(it.cursor)
	it.cursor++
	return elem, true
}

// Pos returns the cursor value prior to the most recent Next() advance.
func (it *Iterator) Pos() int64 {
	if it.cursor == 0 {
		return 0
	}
	return int64(it.cursor - 1)
}

// NewArrayIterator constructs an iterator over an array's elements.
func NewArrayIterator(arr *Array) *Iterator {
	return &Iterator{source: arraySource{arr: arr}}
}

// NewHashIterator constructs an iterator over a hash table's keys.
func NewHashIterator(h *HashTable) *Iterator {
	return &Iterator{source: hashKeysSource{keys: h.Keys().Elements}}
}

// NewStringIterator constructs an iterator over a string's characters.
func NewStringIterator(s *String) *Iterator {
	return &Iterator{source: stringSource{runes: []rune(s.Value)}}
}

// NewBytesIterator constructs an iterator over a byte buffer's bytes.
func NewBytesIterator(b *Bytes) *Iterator {
	return &Iterator{source: bytesSource{b: b.Value}}
}

// NewRangeIterator constructs an iterator over a numeric half-open range
// [start, stop) advancing by step (step may be negative).
func NewRangeIterator(start, stop, step int64) *Iterator {
	return &Iterator{source: rangeSource{start: start, stop: stop, step: step}}
}

// NewIterator resolves the `iter` built-in/instruction's source dispatch:
// array, hash, string and byte buffer all become iterators over
// themselves; any other type fails with a type error.
func NewIterator(source Object) (*Iterator, error) {
	switch v := source.(type) {
	case *Array:
		return NewArrayIterator(v), nil
	case *HashTable:
		return NewHashIterator(v), nil
	case *String:
		return NewStringIterator(v), nil
	case *Bytes:
		return NewBytesIterator(v), nil
	case *Iterator:
		return v, nil
	default:
		return nil, fmt.Errorf("cannot iterate over %s", source.Type())
	}
}
