package vm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"orrery/isa"
	"orrery/object"
	"orrery/platform"
)

// ThreadRegistry is the worker sandbox of §4.I: LaunchThread snapshots
// the owning VM's global pool, hands it together with the shared,
// read-only constant pool to a fresh
// VM instance running on its own goroutine, and returns a handle the
// program can wait on. Workers never observe the parent's subsequent
// global mutations — each gets its own independent copy at spawn time.
type ThreadRegistry struct {
	mu       sync.Mutex
	cancels  map[string]context.CancelFunc
	globals  *GlobalPool
	constants []object.Object
	program  isa.Instructions
	plat     platform.Platform
	cfg      Config
}

// NewThreadRegistry constructs the registry a VM instance owns. program
// and constants are shared read-only with every worker; globals is
// snapshotted fresh per spawn.
func NewThreadRegistry(globals *GlobalPool, constants []object.Object, program isa.Instructions, plat platform.Platform, cfg Config) *ThreadRegistry {
	return &ThreadRegistry{
		cancels:   make(map[string]context.CancelFunc),
		globals:   globals,
		constants: constants,
		program:   program,
		plat:      plat,
		cfg:       cfg,
	}
}

// Spawn starts a worker executing cl against args, returning a handle
// immediately without waiting. Fails with a plain error if concurrency
// is disabled at build configuration; the LaunchThread handler checks
// the same setting first and raises an illegal-operation VMError
// without calling Spawn, so this error reaches only direct callers.
func (r *ThreadRegistry) Spawn(cl *object.Closure, args []object.Object) (*object.ThreadHandle, error) {
	if !r.cfg.EnableConcurrency {
		return nil, fmt.Errorf("concurrency is disabled")
	}

	id := uuid.NewString()
	handle := object.NewThreadHandle(id)

	snapshot := r.globals.Snapshot()
	ctx, cancel := context.WithCancel(context.Background())

	r.mu.Lock()
	r.cancels[id] = cancel
	r.mu.Unlock()

	slog.Debug("thread spawned", "thread_id", id)

	go func() {
		defer func() {
			r.mu.Lock()
			delete(r.cancels, id)
			r.mu.Unlock()
		}()

		workerGlobals := NewGlobalPoolFromSnapshot(snapshot)
		worker := newWorkerVM(r.program, r.constants, r.plat, workerGlobals, r.cfg, ctx)

		result, err := worker.runClosure(cl, args)
		if ctx.Err() != nil {
			handle.Result.MarkCancelled()
			slog.Debug("thread cancelled", "thread_id", id)
			handle.Result.Complete(nil, NewVMError(ThreadWaitError, "worker was cancelled", 0))
			return
		}
		if err != nil {
			slog.Debug("thread failed", "thread_id", id, "error", err)
			handle.Result.Complete(nil, err)
			return
		}
		slog.Debug("thread completed", "thread_id", id)
		handle.Result.Complete(result, nil)
	}()

	return handle, nil
}

// Wait blocks (optionally up to timeoutMs) for a handle's worker to
// finish. A nil timeout blocks indefinitely; a timeout of exactly zero
// performs a single non-blocking poll — this VM's documented resolution
// of the open question between those two cases, since the upstream
// source makes no distinction. A timed-out wait leaves the worker
// running and is not treated as consuming the handle.
func (r *ThreadRegistry) Wait(handle *object.ThreadHandle, timeoutMs *float64) (object.Object, error) {
	if handle.Consumed() {
		return nil, NewVMError(ThreadWaitError, "thread handle already consumed", 0)
	}

	switch {
	case timeoutMs == nil:
		<-handle.Result.Done()
	case *timeoutMs == 0:
		select {
		case <-handle.Result.Done():
		default:
			return nil, NewVMError(ThreadWaitError, "thread has not completed", 0)
		}
	default:
		select {
		case <-handle.Result.Done():
		case <-time.After(time.Duration(*timeoutMs) * time.Millisecond):
			return nil, NewVMError(ThreadWaitError, "wait timed out", 0)
		}
	}

	handle.MarkConsumed()
	if handle.Result.Cancelled() {
		return nil, NewVMError(ThreadWaitError, "worker was cancelled", 0)
	}
	value, err := handle.Result.Outcome()
	if err != nil {
		return nil, wrapVMError(ThreadWaitError, err, isa.OpLaunchAndJoin, 0)
	}
	return value, nil
}

// IsDone reports whether a handle's worker has finished, without
// blocking or consuming the handle.
func (r *ThreadRegistry) IsDone(handle *object.ThreadHandle) bool {
	return handle.Result.IsDone()
}

// Cancel requests cooperative cancellation of a still-running worker.
// The worker observes the cancellation at its next between-instruction
// poll, not necessarily immediately.
func (r *ThreadRegistry) Cancel(handle *object.ThreadHandle) error {
	r.mu.Lock()
	cancel, ok := r.cancels[handle.ID]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("thread %s is not running", handle.ID)
	}
	cancel()
	return nil
}
