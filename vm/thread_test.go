package vm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orrery/isa"
	"orrery/object"
	"orrery/platform"
)

func doubleClosure() (*object.Closure, isa.Instructions) {
	entry := []node{
		{label: "workerStart"},
		{op: isa.OpLoadLocal, args: []int{0}},
		{op: isa.OpLoadLocal, args: []int{0}},
		{op: isa.OpAdd},
		{op: isa.OpRetVal},
		{label: "workerEnd"},
	}
	offsets := make(map[string]int)
	pos := 0
	var out []byte
	for _, n := range entry {
		if n.label != "" {
			offsets[n.label] = pos
			continue
		}
		def, _ := isa.Lookup(byte(n.op))
		pos += def.Width()
		out = append(out, isa.Make(n.op, n.args...)...)
	}
	fn := &object.CompiledFunction{
		Name: "double", NumParameters: 1, NumLocals: 1,
		Start: offsets["workerStart"], End: offsets["workerEnd"],
	}
	return object.NewClosure(fn, nil), isa.Instructions(out)
}

func newTestRegistry(cfg Config, program isa.Instructions) *ThreadRegistry {
	globals := NewGlobalPool(4)
	return NewThreadRegistry(globals, nil, program, platform.NewStub(), cfg)
}

func TestThreadRegistrySpawnAndWaitBlocking(t *testing.T) {
	cl, program := doubleClosure()
	reg := newTestRegistry(DefaultConfig(), program)

	handle, err := reg.Spawn(cl, []object.Object{&object.Integer{Value: 21}})
	require.NoError(t, err)

	result, werr := reg.Wait(handle, nil)
	require.NoError(t, werr)
	assert.Equal(t, int64(42), result.(*object.Integer).Value)
}

func TestThreadRegistryWaitZeroTimeoutPolls(t *testing.T) {
	cl, program := doubleClosure()
	reg := newTestRegistry(DefaultConfig(), program)

	handle, err := reg.Spawn(cl, []object.Object{&object.Integer{Value: 1}})
	require.NoError(t, err)

	zero := 0.0
	_, werr := reg.Wait(handle, &zero)
	if werr == nil {
		return
	}
	vmErr, ok := werr.(*VMError)
	require.True(t, ok)
	assert.Equal(t, ThreadWaitError, vmErr.Kind)

	<-handle.Result.Done()
	result, werr2 := reg.Wait(handle, &zero)
	require.NoError(t, werr2)
	assert.Equal(t, int64(2), result.(*object.Integer).Value)
}

func TestThreadRegistryWaitTimesOutAndLeavesWorkerRunning(t *testing.T) {
	cl, program := doubleClosure()
	reg := newTestRegistry(DefaultConfig(), program)

	handle, err := reg.Spawn(cl, []object.Object{&object.Integer{Value: 5}})
	require.NoError(t, err)

	tiny := 0.0001
	_, werr := reg.Wait(handle, &tiny)
	if werr != nil {
		vmErr, ok := werr.(*VMError)
		require.True(t, ok)
		assert.Equal(t, ThreadWaitError, vmErr.Kind)
		assert.False(t, handle.Consumed())
	}
}

func TestThreadRegistryDisabledConcurrency(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableConcurrency = false
	cl, program := doubleClosure()
	reg := newTestRegistry(cfg, program)

	_, err := reg.Spawn(cl, []object.Object{&object.Integer{Value: 1}})
	require.Error(t, err)
}

func TestThreadRegistryCancel(t *testing.T) {
	cl, program := doubleClosure()
	reg := newTestRegistry(DefaultConfig(), program)

	handle, err := reg.Spawn(cl, []object.Object{&object.Integer{Value: 1}})
	require.NoError(t, err)

	cancelErr := reg.Cancel(handle)
	_ = cancelErr

	time.Sleep(10 * time.Millisecond)
	assert.True(t, reg.IsDone(handle))
}
