package object

import "fmt"

// Builtin is the object variant pushed by LoadBuiltIn: a small integer
// handle identifying an intrinsic function, carrying its name only for
// diagnostics. The VM never introspects a built-in's implementation
// through this object; dispatch happens by index in the builtin package.
type Builtin struct {
	Index int
	Name  string
}

func (b *Builtin) Type() ObjectType { return BuiltinObj }
func (b *Builtin) Describe() string { return fmt.Sprintf("builtin<%s>", b.Name) }
func (b *Builtin) Truthy() bool     { return true }
