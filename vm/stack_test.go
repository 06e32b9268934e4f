package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orrery/isa"
	"orrery/object"
)

func TestDataStackPushPopOrder(t *testing.T) {
	ds := NewDataStack(4)

	sp, err := ds.Push(&object.Integer{Value: 1}, isa.OpConstant)
	require.Nil(t, err)
	assert.Equal(t, 1, sp)

	_, err = ds.Push(&object.Integer{Value: 2}, isa.OpConstant)
	require.Nil(t, err)
	assert.Equal(t, 2, ds.Len())

	top, err := ds.Pop(isa.OpConstant)
	require.Nil(t, err)
	assert.Equal(t, int64(2), top.(*object.Integer).Value)
	assert.Equal(t, 1, ds.Len())
}

func TestDataStackOverflow(t *testing.T) {
	ds := NewDataStack(1)
	_, err := ds.Push(&object.Integer{Value: 1}, isa.OpConstant)
	require.Nil(t, err)

	_, err = ds.Push(&object.Integer{Value: 2}, isa.OpConstant)
	require.NotNil(t, err)
	assert.Equal(t, DataStackOverflowError, err.Kind)
}

func TestDataStackUnderflow(t *testing.T) {
	ds := NewDataStack(2)
	_, err := ds.Pop(isa.OpAdd)
	require.NotNil(t, err)
	assert.Equal(t, DataStackUnderflowError, err.Kind)
}

func TestDataStackPopNRestoresOrder(t *testing.T) {
	ds := NewDataStack(4)
	vals := []object.Object{
		&object.Integer{Value: 1},
		&object.Integer{Value: 2},
		&object.Integer{Value: 3},
	}
	require.Nil(t, ds.PushAll(vals, isa.OpBuildArray))

	popped, err := ds.PopN(3, isa.OpBuildArray)
	require.Nil(t, err)
	require.Len(t, popped, 3)
	assert.Equal(t, int64(1), popped[0].(*object.Integer).Value)
	assert.Equal(t, int64(2), popped[1].(*object.Integer).Value)
	assert.Equal(t, int64(3), popped[2].(*object.Integer).Value)
	assert.Equal(t, 0, ds.Len())
}

func TestDataStackReserveFillsNoval(t *testing.T) {
	ds := NewDataStack(4)
	require.Nil(t, ds.Reserve(2, isa.OpCall))
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, object.NOVAL, ds.Get(0))
	assert.Equal(t, object.NOVAL, ds.Get(1))
}

func TestDataStackTruncateClearsSlots(t *testing.T) {
	ds := NewDataStack(4)
	require.Nil(t, ds.PushAll([]object.Object{
		&object.Integer{Value: 1},
		&object.Integer{Value: 2},
		&object.Integer{Value: 3},
	}, isa.OpConstant))

	ds.Truncate(1)
	assert.Equal(t, 1, ds.Len())
	top, err := ds.TopRef()
	require.Nil(t, err)
	assert.Equal(t, int64(1), top.(*object.Integer).Value)
}

func TestCallStackEntryFrameAlwaysPresent(t *testing.T) {
	entryFn := &object.CompiledFunction{Name: "<entry>", NumParameters: 0, NumLocals: 0, Start: 0, End: 10}
	entry := NewFrame(object.NewClosure(entryFn, nil), 0)
	cs := NewCallStack(4, entry)

	assert.Equal(t, 1, cs.Depth())
	assert.Same(t, entry, cs.Current())
}

func TestCallStackPushPopOverflow(t *testing.T) {
	entryFn := &object.CompiledFunction{Name: "<entry>", NumParameters: 0, NumLocals: 0, Start: 0, End: 10}
	entry := NewFrame(object.NewClosure(entryFn, nil), 0)
	cs := NewCallStack(2, entry)

	calleeFn := &object.CompiledFunction{Name: "f", NumParameters: 0, NumLocals: 0, Start: 0, End: 1}
	callee := NewFrame(object.NewClosure(calleeFn, nil), 0)

	require.Nil(t, cs.Push(callee))
	assert.Equal(t, 2, cs.Depth())

	err := cs.Push(callee)
	require.NotNil(t, err)
	assert.Equal(t, CallStackOverflowError, err.Kind)

	popped, perr := cs.Pop()
	require.Nil(t, perr)
	assert.Same(t, callee, popped)
	assert.Equal(t, 1, cs.Depth())
}
