// Package builtin implements the name-indexed intrinsic function surface
// (§4.H) visible to bytecode through the LoadBuiltIn/Call instructions.
// Each built-in is a small Go function taking the already-reversed
// (source-order) argument vector plus the VM's platform, globals,
// constants and thread registry, returning a result object or an error
// that the VM wraps into a built-in-function VMError.
//
// This package depends only on object and platform, never on vm, so
// vm can depend on builtin without an import cycle: the VM's GlobalPool
// and ThreadRegistry satisfy the narrow Globals/Threads interfaces
// declared here structurally, with no import of vm required.
package builtin

import (
	"fmt"
	"strconv"

	"orrery/object"
	"orrery/platform"
)

// Globals is the narrow read/write surface a built-in needs onto the
// VM's global pool.
type Globals interface {
	Get(i int) object.Object
	Set(obj object.Object, i int) error
	Size() int
}

// Threads is the narrow surface a built-in needs onto the thread
// registry for thread lifecycle built-ins (wait, is_done, cancel).
type Threads interface {
	Spawn(closure *object.Closure, args []object.Object) (*object.ThreadHandle, error)
	Wait(handle *object.ThreadHandle, timeoutMs *float64) (object.Object, error)
	IsDone(handle *object.ThreadHandle) bool
	Cancel(handle *object.ThreadHandle) error
}

// Fn is a built-in function's implementation.
type Fn func(args []object.Object, plat platform.Platform, globals Globals, constants []object.Object, threads Threads) (object.Object, error)

// Definition pairs a built-in's name with its implementation. Its
// stable index is its position in the definitions table.
type Definition struct {
	Name string
	Fn   Fn
}

// definitions is the name-indexed intrinsic table. New built-ins are
// appended; existing indices never change, since the compiler bakes a
// built-in's index into LoadBuiltIn operands.
var definitions = []*Definition{
	{"print", biPrint},
	{"length", biLength},
	{"typeof", biTypeof},
	{"to_string", biToString},
	{"parse_int", biParseInt},
	{"parse_float", biParseFloat},
	{"input", biInput},
	{"sleep", biSleep},
	{"time", biTime},
	{"exec", biExec},
	{"exec_raw", biExecRaw},
	{"fread", biFRead},
	{"fwrite", biFWrite},
	{"fappend", biFAppend},
	{"finfo", biFInfo},
	{"stdin", biStdin},
	{"stdout", biStdout},
	{"args", biArgs},
	{"env", biEnv},
	{"range", biRange},
	{"keys", biKeys},
	{"values", biValues},
	{"assert", biAssert},
	{"wait", biWait},
	{"is_done", biIsDone},
	{"cancel", biCancel},
}

// GetByIndex returns the definition at a stable index, or nil if the
// index is not one the compiler could have assigned.
func GetByIndex(i int) *Definition {
	if i < 0 || i >= len(definitions) {
		return nil
	}
	return definitions[i]
}

// GetByName resolves a built-in by name, returning its definition and
// stable index. New built-ins register by appending to `definitions`
// above and are found here automatically.
func GetByName(name string) (*Definition, int, bool) {
	for i, d := range definitions {
		if d.Name == name {
			return d, i, true
		}
	}
	return nil, 0, false
}

// Count returns the number of registered built-ins.
func Count() int { return len(definitions) }

func argErr(name string, want, got int) error {
	return fmt.Errorf("%s: expects %d argument(s), got %d", name, want, got)
}

func biPrint(args []object.Object, plat platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	for _, a := range args {
		plat.Print(object.Describe(a))
	}
	return object.NOVAL, nil
}

func biLength(args []object.Object, _ platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	if len(args) != 1 {
		return nil, argErr("length", 1, len(args))
	}
	switch v := args[0].(type) {
	case *object.String:
		return &object.Integer{Value: int64(len([]rune(v.Value)))}, nil
	case *object.Bytes:
		return &object.Integer{Value: int64(len(v.Value))}, nil
	case *object.Array:
		return &object.Integer{Value: int64(v.Len())}, nil
	case *object.HashTable:
		return &object.Integer{Value: int64(v.Len())}, nil
	default:
		return nil, fmt.Errorf("length: unsupported type %s", v.Type())
	}
}

func biTypeof(args []object.Object, _ platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	if len(args) != 1 {
		return nil, argErr("typeof", 1, len(args))
	}
	return &object.String{Value: string(args[0].Type())}, nil
}

func biToString(args []object.Object, _ platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	if len(args) != 1 {
		return nil, argErr("to_string", 1, len(args))
	}
	return &object.String{Value: object.Describe(args[0])}, nil
}

func biParseInt(args []object.Object, _ platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	if len(args) != 1 {
		return nil, argErr("parse_int", 1, len(args))
	}
	s, ok := args[0].(*object.String)
	if !ok {
		return nil, fmt.Errorf("parse_int: expects a string, got %s", args[0].Type())
	}
	v, err := strconv.ParseInt(s.Value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse_int: %s", err)
	}
	return &object.Integer{Value: v}, nil
}

func biParseFloat(args []object.Object, _ platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	if len(args) != 1 {
		return nil, argErr("parse_float", 1, len(args))
	}
	s, ok := args[0].(*object.String)
	if !ok {
		return nil, fmt.Errorf("parse_float: expects a string, got %s", args[0].Type())
	}
	v, err := strconv.ParseFloat(s.Value, 64)
	if err != nil {
		return nil, fmt.Errorf("parse_float: %s", err)
	}
	return &object.Float{Value: v}, nil
}

func biInput(args []object.Object, plat platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	prompt := ""
	hasPrompt := false
	if len(args) == 1 {
		s, ok := args[0].(*object.String)
		if !ok {
			return nil, fmt.Errorf("input: prompt must be a string, got %s", args[0].Type())
		}
		prompt = s.Value
		hasPrompt = true
	} else if len(args) != 0 {
		return nil, argErr("input", 1, len(args))
	}
	line, err := plat.ReadLine(prompt, hasPrompt)
	if err != nil {
		return nil, err
	}
	return &object.String{Value: line}, nil
}

func biSleep(args []object.Object, plat platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	if len(args) != 1 {
		return nil, argErr("sleep", 1, len(args))
	}
	ms, err := numericValue(args[0])
	if err != nil {
		return nil, fmt.Errorf("sleep: %s", err)
	}
	plat.Sleep(ms)
	return object.NOVAL, nil
}

func biTime(args []object.Object, plat platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	if len(args) != 0 {
		return nil, argErr("time", 0, len(args))
	}
	return &object.Float{Value: plat.GetUnixTime()}, nil
}

func stringArgs(args []object.Object) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		s, ok := a.(*object.String)
		if !ok {
			return nil, fmt.Errorf("expects string arguments, got %s at position %d", a.Type(), i)
		}
		out[i] = s.Value
	}
	return out, nil
}

func biExec(args []object.Object, plat platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	argv, err := stringArgs(args)
	if err != nil {
		return nil, fmt.Errorf("exec: %s", err)
	}
	code, out, err := plat.Exec(argv)
	if err != nil {
		return nil, fmt.Errorf("exec: %s", err)
	}
	result := object.NewHashTable()
	result.SetIndexed(&object.String{Value: "exit_code"}, &object.Integer{Value: int64(code)})
	result.SetIndexed(&object.String{Value: "stdout"}, &object.Bytes{Value: out})
	return result, nil
}

func biExecRaw(args []object.Object, plat platform.Platform, globals Globals, constants []object.Object, threads Threads) (object.Object, error) {
	if len(args) != 1 {
		return nil, argErr("exec_raw", 1, len(args))
	}
	line, ok := args[0].(*object.String)
	if !ok {
		return nil, fmt.Errorf("exec_raw: expects a string, got %s", args[0].Type())
	}
	shell := plat.SysShell()
	if len(shell) == 0 {
		return nil, fmt.Errorf("exec_raw: shell is not supported on this platform")
	}
	return biExec(append(toObjects(shell), &object.String{Value: line.Value}), plat, globals, constants, threads)
}

func toObjects(ss []string) []object.Object {
	out := make([]object.Object, len(ss))
	for i, s := range ss {
		out[i] = &object.String{Value: s}
	}
	return out
}

func numericValue(o object.Object) (float64, error) {
	switch v := o.(type) {
	case *object.Integer:
		return float64(v.Value), nil
	case *object.Float:
		return v.Value, nil
	default:
		return 0, fmt.Errorf("expects a numeric value, got %s", o.Type())
	}
}

func optionalInt64(o object.Object) (*int64, error) {
	if o == nil || o == object.NOVAL {
		return nil, nil
	}
	i, ok := o.(*object.Integer)
	if !ok {
		return nil, fmt.Errorf("expects an integer, got %s", o.Type())
	}
	return &i.Value, nil
}

func biFRead(args []object.Object, plat platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	if len(args) < 1 || len(args) > 3 {
		return nil, fmt.Errorf("fread: expects 1 to 3 arguments, got %d", len(args))
	}
	path, ok := args[0].(*object.String)
	if !ok {
		return nil, fmt.Errorf("fread: path must be a string, got %s", args[0].Type())
	}
	var start, n *int64
	var err error
	if len(args) > 1 {
		if start, err = optionalInt64(args[1]); err != nil {
			return nil, fmt.Errorf("fread: %s", err)
		}
	}
	if len(args) > 2 {
		if n, err = optionalInt64(args[2]); err != nil {
			return nil, fmt.Errorf("fread: %s", err)
		}
	}
	data, _, err := plat.FRead(path.Value, start, n)
	if err != nil {
		return nil, fmt.Errorf("fread: %s", err)
	}
	return &object.Bytes{Value: data}, nil
}

func dataOf(o object.Object) ([]byte, error) {
	switch v := o.(type) {
	case *object.Bytes:
		return v.Value, nil
	case *object.String:
		return []byte(v.Value), nil
	default:
		return nil, fmt.Errorf("expects string or bytes, got %s", o.Type())
	}
}

func biFWrite(args []object.Object, plat platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	if len(args) != 2 {
		return nil, argErr("fwrite", 2, len(args))
	}
	path, ok := args[0].(*object.String)
	if !ok {
		return nil, fmt.Errorf("fwrite: path must be a string, got %s", args[0].Type())
	}
	data, err := dataOf(args[1])
	if err != nil {
		return nil, fmt.Errorf("fwrite: %s", err)
	}
	written, err := plat.FWrite(path.Value, data)
	if err != nil {
		return nil, fmt.Errorf("fwrite: %s", err)
	}
	return &object.Integer{Value: written}, nil
}

func biFAppend(args []object.Object, plat platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	if len(args) != 2 {
		return nil, argErr("fappend", 2, len(args))
	}
	path, ok := args[0].(*object.String)
	if !ok {
		return nil, fmt.Errorf("fappend: path must be a string, got %s", args[0].Type())
	}
	data, err := dataOf(args[1])
	if err != nil {
		return nil, fmt.Errorf("fappend: %s", err)
	}
	written, err := plat.FAppend(path.Value, data)
	if err != nil {
		return nil, fmt.Errorf("fappend: %s", err)
	}
	return &object.Integer{Value: written}, nil
}

func biFInfo(args []object.Object, plat platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	if len(args) != 1 {
		return nil, argErr("finfo", 1, len(args))
	}
	path, ok := args[0].(*object.String)
	if !ok {
		return nil, fmt.Errorf("finfo: path must be a string, got %s", args[0].Type())
	}
	info, err := plat.FInfo(path.Value)
	if err != nil {
		return nil, fmt.Errorf("finfo: %s", err)
	}
	h := object.NewHashTable()
	h.SetIndexed(&object.String{Value: "size"}, &object.Integer{Value: info.Size})
	h.SetIndexed(&object.String{Value: "is_dir"}, object.NativeBool(info.IsDir))
	h.SetIndexed(&object.String{Value: "mode"}, &object.String{Value: info.Mode})
	h.SetIndexed(&object.String{Value: "modified"}, &object.Float{Value: float64(info.ModTime.Unix())})
	h.SetIndexed(&object.String{Value: "size_human"}, &object.String{Value: humanizeBytes(info.Size)})
	return h, nil
}

func biStdin(args []object.Object, plat platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	if len(args) != 0 {
		return nil, argErr("stdin", 0, len(args))
	}
	data, err := plat.StdinRead()
	if err != nil {
		return nil, fmt.Errorf("stdin: %s", err)
	}
	return &object.Bytes{Value: data}, nil
}

func biStdout(args []object.Object, plat platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	if len(args) != 1 {
		return nil, argErr("stdout", 1, len(args))
	}
	data, err := dataOf(args[0])
	if err != nil {
		return nil, fmt.Errorf("stdout: %s", err)
	}
	written, err := plat.StdoutWrite(data)
	if err != nil {
		return nil, fmt.Errorf("stdout: %s", err)
	}
	return &object.Integer{Value: int64(written)}, nil
}

func biArgs(args []object.Object, plat platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	if len(args) != 0 {
		return nil, argErr("args", 0, len(args))
	}
	return &object.Array{Elements: toObjects(plat.GetArgs())}, nil
}

func biEnv(args []object.Object, plat platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	if len(args) == 0 {
		h := object.NewHashTable()
		for k, v := range plat.GetEnvs() {
			h.SetIndexed(&object.String{Value: k}, &object.String{Value: v})
		}
		return h, nil
	}
	if len(args) != 1 {
		return nil, argErr("env", 1, len(args))
	}
	name, ok := args[0].(*object.String)
	if !ok {
		return nil, fmt.Errorf("env: name must be a string, got %s", args[0].Type())
	}
	v, ok := plat.GetEnv(name.Value)
	if !ok {
		return object.NOVAL, nil
	}
	return &object.String{Value: v}, nil
}

func biRange(args []object.Object, _ platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	var start, stop int64
	step := int64(1)

	ints := make([]int64, len(args))
	for i, a := range args {
		iv, ok := a.(*object.Integer)
		if !ok {
			return nil, fmt.Errorf("range: expects integer arguments, got %s", a.Type())
		}
		ints[i] = iv.Value
	}

	switch len(ints) {
	case 1:
		stop = ints[0]
	case 2:
		start, stop = ints[0], ints[1]
	case 3:
		start, stop, step = ints[0], ints[1], ints[2]
	default:
		return nil, fmt.Errorf("range: expects 1 to 3 arguments, got %d", len(args))
	}

	return object.NewRangeIterator(start, stop, step), nil
}

func biKeys(args []object.Object, _ platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	if len(args) != 1 {
		return nil, argErr("keys", 1, len(args))
	}
	h, ok := args[0].(*object.HashTable)
	if !ok {
		return nil, fmt.Errorf("keys: expects a hash, got %s", args[0].Type())
	}
	return h.Keys(), nil
}

func biValues(args []object.Object, _ platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	if len(args) != 1 {
		return nil, argErr("values", 1, len(args))
	}
	h, ok := args[0].(*object.HashTable)
	if !ok {
		return nil, fmt.Errorf("values: expects a hash, got %s", args[0].Type())
	}
	return h.Values(), nil
}

// AssertionFailedError is returned by the assert built-in when its
// condition is false. It is a distinct type (rather than a plain
// fmt.Errorf) so execCall can tell an assertion failure apart from any
// other built-in error and raise AssertionError instead of the generic
// BuiltinFunctionError every other built-in failure maps to.
type AssertionFailedError struct {
	Message string
}

func (e *AssertionFailedError) Error() string {
	return "assertion failed: " + e.Message
}

func biAssert(args []object.Object, _ platform.Platform, _ Globals, _ []object.Object, _ Threads) (object.Object, error) {
	if len(args) != 2 {
		return nil, argErr("assert", 2, len(args))
	}
	msg, ok := args[1].(*object.String)
	if !ok {
		return nil, fmt.Errorf("assert: message must be a string, got %s", args[1].Type())
	}
	if !args[0].Truthy() {
		return nil, &AssertionFailedError{Message: msg.Value}
	}
	return object.NOVAL, nil
}

func threadHandleArg(args []object.Object, name string) (*object.ThreadHandle, error) {
	if len(args) < 1 {
		return nil, argErr(name, 1, len(args))
	}
	h, ok := args[0].(*object.ThreadHandle)
	if !ok {
		return nil, fmt.Errorf("%s: expects a thread handle, got %s", name, args[0].Type())
	}
	return h, nil
}

func biWait(args []object.Object, _ platform.Platform, _ Globals, _ []object.Object, threads Threads) (object.Object, error) {
	h, err := threadHandleArg(args, "wait")
	if err != nil {
		return nil, err
	}
	var timeoutMs *float64
	if len(args) == 2 {
		ms, err := numericValue(args[1])
		if err != nil {
			return nil, fmt.Errorf("wait: %s", err)
		}
		timeoutMs = &ms
	} else if len(args) > 2 {
		return nil, argErr("wait", 2, len(args))
	}
	return threads.Wait(h, timeoutMs)
}

func biIsDone(args []object.Object, _ platform.Platform, _ Globals, _ []object.Object, threads Threads) (object.Object, error) {
	h, err := threadHandleArg(args, "is_done")
	if err != nil {
		return nil, err
	}
	return object.NativeBool(threads.IsDone(h)), nil
}

func biCancel(args []object.Object, _ platform.Platform, _ Globals, _ []object.Object, threads Threads) (object.Object, error) {
	h, err := threadHandleArg(args, "cancel")
	if err != nil {
		return nil, err
	}
	if err := threads.Cancel(h); err != nil {
		return nil, err
	}
	return object.NOVAL, nil
}

// humanizeBytes renders a byte count in the finfo hash's size_human
// field, as a thin indirection over dustin/go-humanize's Bytes.
func humanizeBytes(n int64) string {
	return humanizeBytesImpl(n)
}
