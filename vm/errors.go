package vm

import (
	"fmt"

	"github.com/pkg/errors"

	"orrery/isa"
)

// VMErrorKind is the error taxonomy tag of §7.
type VMErrorKind string

const (
	DataStackOverflowError   VMErrorKind = "DataStackOverflow"
	DataStackUnderflowError  VMErrorKind = "DataStackUnderflow"
	CallStackOverflowError   VMErrorKind = "CallStackOverflow"
	CallStackUnderflowError  VMErrorKind = "CallStackUnderflow"
	GlobalPoolOverflowError  VMErrorKind = "GlobalPoolOverflow"
	InvalidGlobalIndexError  VMErrorKind = "InvalidGlobalIndex"
	FunctionArgumentsError   VMErrorKind = "FunctionArguments"
	BuiltinFunctionError     VMErrorKind = "BuiltinFunction"
	IterationError           VMErrorKind = "Iteration"
	IndexError               VMErrorKind = "Index"
	AttributeError           VMErrorKind = "Attribute"
	TypeError                VMErrorKind = "Type"
	AssertionError           VMErrorKind = "Assertion"
	DivideByZeroError        VMErrorKind = "DivideByZero"
	ThreadCreateError        VMErrorKind = "ThreadCreate"
	ThreadWaitError          VMErrorKind = "ThreadWait"
	IllegalOperationError    VMErrorKind = "IllegalOperation"
	StackCorruptionError     VMErrorKind = "StackCorruption"
	UnresolvedBuiltinError   VMErrorKind = "UnresolvedBuiltin"
	IllegalJumpError         VMErrorKind = "IllegalJump"
)

// VMError is the single typed failure the dispatch loop surfaces (§7):
// a taxonomy tag, a human message, the offending instruction kind if
// known, and the bytecode offset at which the error surfaced.
type VMError struct {
	Kind        VMErrorKind
	Message     string
	Instruction *isa.Opcode
	Position    int
	cause       error
}

func (e *VMError) Error() string {
	if e.Instruction != nil {
		def, lookupErr := isa.Lookup(byte(*e.Instruction))
		name := "unknown"
		if lookupErr == nil {
			name = def.Name
		}
		return fmt.Sprintf("%s at %d (%s): %s", e.Kind, e.Position, name, e.Message)
	}
	return fmt.Sprintf("%s at %d: %s", e.Kind, e.Position, e.Message)
}

// Unwrap lets errors.Is/As reach an underlying platform or builtin error
// that was wrapped into this VMError via github.com/pkg/errors.
func (e *VMError) Unwrap() error { return e.cause }

// NewVMError constructs a VMError with no instruction context.
func NewVMError(kind VMErrorKind, message string, pos int) *VMError {
	return &VMError{Kind: kind, Message: message, Position: pos}
}

// NewVMErrorAt constructs a VMError citing the offending instruction.
func NewVMErrorAt(kind VMErrorKind, message string, op isa.Opcode, pos int) *VMError {
	return &VMError{Kind: kind, Message: message, Instruction: &op, Position: pos}
}

// wrapVMError annotates an underlying error (from a built-in or the
// platform vtable) into a VMError of the given kind, preserving the
// cause for Unwrap — this is the github.com/pkg/errors usage named in
// SPEC_FULL.md's AMBIENT STACK/Errors section.
func wrapVMError(kind VMErrorKind, cause error, op isa.Opcode, pos int) *VMError {
	return &VMError{
		Kind:        kind,
		Message:     errors.Wrapf(cause, "%s", kind).Error(),
		Instruction: &op,
		Position:    pos,
		cause:       cause,
	}
}
