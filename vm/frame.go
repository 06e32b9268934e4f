package vm

import (
	"orrery/isa"
	"orrery/object"
)

// ExecutionFrame is one activation record on the call stack (§4.C): the
// closure being executed, the base pointer locals/arguments are indexed
// from, and the instruction pointer into the closure's subroutine body.
type ExecutionFrame struct {
	closure *object.Closure
	ip      int
	bp      int
}

// NewFrame constructs a frame for closure cl whose locals/arguments
// begin at data-stack slot bp.
func NewFrame(cl *object.Closure, bp int) *ExecutionFrame {
	return &ExecutionFrame{
		closure: cl,
		ip:      cl.Fn.Start,
		bp:      bp,
	}
}

// Closure returns the frame's closure.
func (f *ExecutionFrame) Closure() *object.Closure { return f.closure }

// Instructions returns the full shared instruction stream the frame's
// ip indexes into (subroutines are ranges within one program-wide
// stream, per §4.C).
func (f *ExecutionFrame) Instructions(program isa.Instructions) isa.Instructions {
	return program
}

// IP returns the current instruction pointer.
func (f *ExecutionFrame) IP() int { return f.ip }

// SetIP overwrites the instruction pointer, failing with an illegal-jump
// error if the target falls outside the closure's own subroutine body.
func (f *ExecutionFrame) SetIP(pos int) *VMError {
	if pos < f.closure.Fn.Start || pos > f.closure.Fn.End {
		return NewVMError(IllegalJumpError, "jump target outside subroutine bounds", pos)
	}
	f.ip = pos
	return nil
}

// Advance moves the instruction pointer forward by n bytes, used after
// decoding an instruction's opcode and operands.
func (f *ExecutionFrame) Advance(n int) { f.ip += n }

// BP returns the frame's base pointer.
func (f *ExecutionFrame) BP() int { return f.bp }

// GetFree resolves the i'th free variable captured by the frame's
// closure, failing with an illegal-operation error if the index is out
// of range (the compiler is trusted never to emit this, but the bytecode
// stream is not if hand-assembled or corrupted).
func (f *ExecutionFrame) GetFree(i int) (object.Object, *VMError) {
	v, err := f.closure.GetFree(i)
	if err != nil {
		return nil, NewVMError(IllegalOperationError, err.Error(), f.ip)
	}
	return v, nil
}
