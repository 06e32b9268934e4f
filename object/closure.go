package object

import "fmt"

// CompiledFunction is the compiler's descriptor for a subroutine: its
// name, parameter arity, total local-slot count and the half-open
// instruction range [Start, End) within the shared code vector. It is
// immutable after the compiler constructs it.
type CompiledFunction struct {
	Name          string
	NumParameters int
	NumLocals     int
	Start         int
	End           int
}

func (f *CompiledFunction) Type() ObjectType { return SubroutineObj }
func (f *CompiledFunction) Describe() string {
	name := f.Name
	if name == "" {
		name = "<anonymous>"
	}
	return fmt.Sprintf("subroutine %s/%d", name, f.NumParameters)
}
func (f *CompiledFunction) Truthy() bool { return true }

// Closure is a subroutine reference plus the ordered, immutable vector of
// free objects it captured at creation time.
type Closure struct {
	Fn    *CompiledFunction
	Frees []Object
}

func (c *Closure) Type() ObjectType { return ClosureObj }
func (c *Closure) Describe() string { return fmt.Sprintf("closure<%s>", c.Fn.Describe()) }
func (c *Closure) Truthy() bool     { return true }

// GetFree reads the i-th captured object, failing if i exceeds the
// capture count.
func (c *Closure) GetFree(i int) (Object, error) {
	if i < 0 || i >= len(c.Frees) {
		return nil, fmt.Errorf("free variable index %d out of range (have %d)", i, len(c.Frees))
	}
	return c.Frees[i], nil
}

// NewClosure constructs a closure context from a subroutine and its
// captured free objects.
func NewClosure(fn *CompiledFunction, frees []Object) *Closure {
	return &Closure{Fn: fn, Frees: frees}
}
