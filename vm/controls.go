package vm

import (
	"strings"

	"orrery/builtin"
	"orrery/isa"
	"orrery/object"
)

// execConstant handles `Constant k`: push constants[k].
func (v *VM) execConstant(k int, op isa.Opcode) *VMError {
	if k < 0 || k >= len(v.constants) {
		return NewVMErrorAt(IllegalOperationError, "constant index out of range", op, k)
	}
	_, err := v.data.Push(v.constants[k], op)
	return err
}

func (v *VM) execLoadGlobal(k int, op isa.Opcode) *VMError {
	if k < 0 || k >= v.globals.Size() {
		return NewVMErrorAt(InvalidGlobalIndexError, "global index out of range", op, k)
	}
	_, err := v.data.Push(v.globals.Get(k), op)
	return err
}

func (v *VM) execStoreGlobal(k int, op isa.Opcode) *VMError {
	val, err := v.data.Pop(op)
	if err != nil {
		return err
	}
	if e := v.globals.Set(val, k); e != nil {
		return NewVMErrorAt(GlobalPoolOverflowError, e.Error(), op, k)
	}
	return nil
}

func (v *VM) execLoadLocal(k int, op isa.Opcode) *VMError {
	frame := v.calls.Current()
	_, err := v.data.Push(v.data.Get(frame.BP()+k), op)
	return err
}

func (v *VM) execStoreLocal(k int, op isa.Opcode) *VMError {
	frame := v.calls.Current()
	val, err := v.data.Pop(op)
	if err != nil {
		return err
	}
	v.data.Set(frame.BP()+k, val)
	return nil
}

func (v *VM) execLoadFree(k int, op isa.Opcode) *VMError {
	frame := v.calls.Current()
	val, err := frame.GetFree(k)
	if err != nil {
		return err
	}
	_, perr := v.data.Push(val, op)
	return perr
}

func (v *VM) execLoadBuiltin(k int, op isa.Opcode) *VMError {
	def := builtin.GetByIndex(k)
	if def == nil {
		return NewVMErrorAt(UnresolvedBuiltinError, "unresolved built-in index", op, k)
	}
	_, err := v.data.Push(&object.Builtin{Index: k, Name: def.Name}, op)
	return err
}

// execBinaryArith handles Add..Mod.
func (v *VM) execBinaryArith(op isa.Opcode, pos int) *VMError {
	right, err := v.data.Pop(op)
	if err != nil {
		return err
	}
	left, err := v.data.Pop(op)
	if err != nil {
		return err
	}
	result, verr := binaryArithmetic(op, left, right, pos)
	if verr != nil {
		return verr
	}
	_, perr := v.data.Push(result, op)
	return perr
}

func (v *VM) execBitwise(op isa.Opcode, pos int) *VMError {
	right, err := v.data.Pop(op)
	if err != nil {
		return err
	}
	left, err := v.data.Pop(op)
	if err != nil {
		return err
	}
	result, verr := bitwise(op, left, right, pos)
	if verr != nil {
		return verr
	}
	_, perr := v.data.Push(result, op)
	return perr
}

func (v *VM) execLogicalBinary(op isa.Opcode, pos int) *VMError {
	right, err := v.data.Pop(op)
	if err != nil {
		return err
	}
	left, err := v.data.Pop(op)
	if err != nil {
		return err
	}
	result, verr := logicalBinary(op, left, right, pos)
	if verr != nil {
		return verr
	}
	_, perr := v.data.Push(result, op)
	return perr
}

func (v *VM) execCompare(op isa.Opcode, pos int) *VMError {
	right, err := v.data.Pop(op)
	if err != nil {
		return err
	}
	left, err := v.data.Pop(op)
	if err != nil {
		return err
	}
	result, verr := compare(op, left, right, pos)
	if verr != nil {
		return verr
	}
	_, perr := v.data.Push(result, op)
	return perr
}

func (v *VM) execNeg(pos int) *VMError {
	operand, err := v.data.Pop(isa.OpNeg)
	if err != nil {
		return err
	}
	result, verr := negate(operand, pos)
	if verr != nil {
		return verr
	}
	_, perr := v.data.Push(result, isa.OpNeg)
	return perr
}

func (v *VM) execLNot() *VMError {
	operand, err := v.data.Pop(isa.OpLNot)
	if err != nil {
		return err
	}
	_, perr := v.data.Push(logicalNot(operand), isa.OpLNot)
	return perr
}

func (v *VM) execGetIndex(pos int) *VMError {
	index, err := v.data.Pop(isa.OpGetIndex)
	if err != nil {
		return err
	}
	container, err := v.data.Pop(isa.OpGetIndex)
	if err != nil {
		return err
	}
	idx, ok := container.(object.Indexable)
	if !ok {
		return NewVMErrorAt(TypeError, "value is not indexable: "+string(container.Type()), isa.OpGetIndex, pos)
	}
	result, ierr := idx.GetIndexed(index)
	if ierr != nil {
		return NewVMErrorAt(IndexError, ierr.Error(), isa.OpGetIndex, pos)
	}
	_, perr := v.data.Push(result, isa.OpGetIndex)
	return perr
}

// execSetIndex implements `SetIndex`: "…, i, c, v → …, c'". It clones the
// container shallowly, mutates the clone, and pushes the clone — this
// project's documented resolution of the source's open question about
// nested-container sharing (the outer container is cloned; elements
// inside it, including any nested containers, are shared by reference).
func (v *VM) execSetIndex(pos int) *VMError {
	value, err := v.data.Pop(isa.OpSetIndex)
	if err != nil {
		return err
	}
	container, err := v.data.Pop(isa.OpSetIndex)
	if err != nil {
		return err
	}
	index, err := v.data.Pop(isa.OpSetIndex)
	if err != nil {
		return err
	}

	clone, cerr := shallowCloneContainer(container)
	if cerr != nil {
		return NewVMErrorAt(TypeError, cerr.Error(), isa.OpSetIndex, pos)
	}
	if serr := clone.SetIndexed(index, value); serr != nil {
		return NewVMErrorAt(IndexError, serr.Error(), isa.OpSetIndex, pos)
	}
	_, perr := v.data.Push(clone, isa.OpSetIndex)
	return perr
}

func shallowCloneContainer(container object.Object) (object.Indexable, error) {
	switch c := container.(type) {
	case *object.Array:
		return c.ShallowClone(), nil
	case *object.HashTable:
		return c.ShallowClone(), nil
	case *object.Bytes:
		return c.ShallowClone(), nil
	case *object.String:
		return c, nil // SetIndexed on String always fails, surfaced by the caller
	default:
		return nil, errNotIndexable(container)
	}
}

func errNotIndexable(o object.Object) error {
	return &describeErr{"value does not support index assignment: " + string(o.Type())}
}

type describeErr struct{ msg string }

func (e *describeErr) Error() string { return e.msg }

func (v *VM) execBuildArray(n int, op isa.Opcode) *VMError {
	elems, err := v.data.PopN(n, op)
	if err != nil {
		return err
	}
	_, perr := v.data.Push(&object.Array{Elements: elems}, op)
	return perr
}

func (v *VM) execBuildHash(n int, op isa.Opcode, pos int) *VMError {
	elems, err := v.data.PopN(n, op)
	if err != nil {
		return err
	}
	h := object.NewHashTable()
	for i := 0; i+1 < len(elems); i += 2 {
		if serr := h.SetIndexed(elems[i], elems[i+1]); serr != nil {
			return NewVMErrorAt(TypeError, serr.Error(), op, pos)
		}
	}
	_, perr := v.data.Push(h, op)
	return perr
}

// execClosure handles `Closure f,n`: f indexes constants for the
// CompiledFunction, n free variables are popped off the stack in
// declaration order.
func (v *VM) execClosure(constIndex, numFree int, op isa.Opcode, pos int) *VMError {
	if constIndex < 0 || constIndex >= len(v.constants) {
		return NewVMErrorAt(IllegalOperationError, "constant index out of range", op, pos)
	}
	fn, ok := v.constants[constIndex].(*object.CompiledFunction)
	if !ok {
		return NewVMErrorAt(TypeError, "constant is not a subroutine", op, pos)
	}
	frees, err := v.data.PopN(numFree, op)
	if err != nil {
		return err
	}
	_, perr := v.data.Push(object.NewClosure(fn, frees), op)
	return perr
}

// execCall handles `Call n` per §4.F: peek the callee n slots below TOS,
// dispatch on its kind, and either invoke a built-in in place or push a
// new frame for a closure.
func (v *VM) execCall(numArgs int, op isa.Opcode, pos int) *VMError {
	calleeIdx := v.data.Len() - 1 - numArgs
	if calleeIdx < 0 {
		return NewVMErrorAt(StackCorruptionError, "call with insufficient stack depth", op, pos)
	}
	callee := v.data.Get(calleeIdx)

	switch fn := callee.(type) {
	case *object.Builtin:
		args, err := v.data.PopN(numArgs, op)
		if err != nil {
			return err
		}
		if _, err := v.data.Pop(op); err != nil {
			return err
		}
		def := builtin.GetByIndex(fn.Index)
		if def == nil {
			return NewVMErrorAt(UnresolvedBuiltinError, "unresolved built-in index", op, pos)
		}
		result, berr := def.Fn(args, v.platform, v.globals, v.constants, v.threads)
		if berr != nil {
			if assertErr, ok := berr.(*builtin.AssertionFailedError); ok {
				return NewVMErrorAt(AssertionError, assertErr.Message, op, pos)
			}
			return wrapVMError(BuiltinFunctionError, berr, op, pos)
		}
		if result == nil {
			result = object.NOVAL
		}
		_, perr := v.data.Push(result, op)
		return perr

	case *object.Closure:
		if numArgs != fn.Fn.NumParameters {
			return NewVMErrorAt(FunctionArgumentsError, "wrong number of arguments", op, pos)
		}
		bp := v.data.Len() - numArgs
		if rerr := v.data.Reserve(fn.Fn.NumLocals-fn.Fn.NumParameters, op); rerr != nil {
			return rerr
		}
		if perr := v.calls.Push(NewFrame(fn, bp)); perr != nil {
			return perr
		}
		return nil

	default:
		return NewVMErrorAt(StackCorruptionError, "calling non-callable value: "+string(callee.Type()), op, pos)
	}
}

// execReturn handles `Ret`/`RetVal`. When it pops the entry frame (the
// frame the VM or a spawned worker started in, with no callee object
// beneath its base pointer to restore), the VM halts with the return
// value as the program result instead of resuming a caller.
func (v *VM) execReturn(hasValue bool, op isa.Opcode) *VMError {
	var retVal object.Object = object.NOVAL
	if hasValue {
		val, err := v.data.Pop(op)
		if err != nil {
			return err
		}
		retVal = val
	}

	frame, ferr := v.calls.Pop()
	if ferr != nil {
		return ferr
	}

	if v.calls.Depth() == 0 {
		v.halted = true
		v.finalResult = retVal
		return nil
	}

	v.data.Truncate(frame.BP() - 1)
	_, perr := v.data.Push(retVal, op)
	return perr
}

func (v *VM) execJump(pos int) *VMError {
	return v.calls.Current().SetIP(pos)
}

func (v *VM) execNotJump(pos int, op isa.Opcode) *VMError {
	cond, err := v.data.Pop(op)
	if err != nil {
		return err
	}
	if !cond.Truthy() {
		return v.calls.Current().SetIP(pos)
	}
	return nil
}

func (v *VM) execIter(op isa.Opcode, pos int) *VMError {
	source, err := v.data.Pop(op)
	if err != nil {
		return err
	}
	it, ierr := object.NewIterator(source)
	if ierr != nil {
		return NewVMErrorAt(IterationError, ierr.Error(), op, pos)
	}
	_, perr := v.data.Push(it, op)
	return perr
}

// execIterNext handles `IterNext p` and `IterNextEnum p`: the iterator
// stays on TOS beneath the pushed value(s) until exhaustion, at which
// point it is popped and ip jumps to p.
func (v *VM) execIterNext(pos int, op isa.Opcode, enumerate bool) *VMError {
	top, err := v.data.TopRef()
	if err != nil {
		return err
	}
	it, ok := top.(*object.Iterator)
	if !ok {
		return NewVMErrorAt(IterationError, "IterNext on a non-iterator", op, pos)
	}

	elem, more := it.Next()
	cursorBefore := it.Pos()
	if !more {
		if _, err := v.data.Pop(op); err != nil {
			return err
		}
		return v.calls.Current().SetIP(pos)
	}

	if enumerate {
		_, perr := v.data.Push(&object.Integer{Value: cursorBefore}, op)
		if perr != nil {
			return perr
		}
	}
	_, perr := v.data.Push(elem, op)
	return perr
}

func (v *VM) execAssertFail(op isa.Opcode, pos int) *VMError {
	msg, err := v.data.Pop(op)
	if err != nil {
		return err
	}
	return NewVMErrorAt(AssertionError, object.Describe(msg), op, pos)
}

func (v *VM) execGetAttr(nAttr int, op isa.Opcode, pos int) *VMError {
	path, err := v.popAttrPath(nAttr, op)
	if err != nil {
		return err
	}
	obj, err := v.data.Pop(op)
	if err != nil {
		return err
	}
	result, aerr := object.ResolveGetAttr(obj, path)
	if aerr != nil {
		return NewVMErrorAt(AttributeError, aerr.Error(), op, pos)
	}
	_, perr := v.data.Push(result, op)
	return perr
}

func (v *VM) execCallAttr(nAttr, nArgs int, op isa.Opcode, pos int) *VMError {
	args, err := v.data.PopN(nArgs, op)
	if err != nil {
		return err
	}
	path, err := v.popAttrPath(nAttr, op)
	if err != nil {
		return err
	}
	obj, err := v.data.Pop(op)
	if err != nil {
		return err
	}
	result, aerr := object.ResolveCallAttr(obj, path, args)
	if aerr != nil {
		return NewVMErrorAt(AttributeError, aerr.Error(), op, pos)
	}
	_, perr := v.data.Push(result, op)
	return perr
}

func (v *VM) popAttrPath(n int, op isa.Opcode) ([]string, *VMError) {
	segs, err := v.data.PopN(n, op)
	if err != nil {
		return nil, err
	}
	path := make([]string, n)
	for i, s := range segs {
		str, ok := s.(*object.String)
		if !ok {
			return nil, NewVMError(AttributeError, "attribute path segment must be a string", 0)
		}
		path[i] = str.Value
	}
	return path, nil
}

func (v *VM) execLaunchThread(numArgs int, op isa.Opcode, pos int, join bool) *VMError {
	if !v.cfg.EnableConcurrency {
		return NewVMErrorAt(IllegalOperationError, "concurrency is disabled", op, pos)
	}
	args, err := v.data.PopN(numArgs, op)
	if err != nil {
		return err
	}
	calleeObj, err := v.data.Pop(op)
	if err != nil {
		return err
	}
	closure, ok := calleeObj.(*object.Closure)
	if !ok {
		return NewVMErrorAt(StackCorruptionError, "thread target is not a closure: "+string(calleeObj.Type()), op, pos)
	}

	handle, serr := v.threads.Spawn(closure, args)
	if serr != nil {
		return wrapVMError(ThreadCreateError, serr, op, pos)
	}

	if !join {
		_, perr := v.data.Push(handle, op)
		return perr
	}

	result, werr := v.threads.Wait(handle, nil)
	if werr != nil {
		if vmErr, ok := werr.(*VMError); ok {
			return vmErr
		}
		return wrapVMError(ThreadWaitError, werr, op, pos)
	}
	_, perr := v.data.Push(result, op)
	return perr
}

// execShell implements `Shell`/`ShellRaw`: invoke platform.sys_shell to
// obtain the host's shell invocation prefix, run the command line
// through it (Shell) or split and exec it directly (ShellRaw), and push
// a result hash with exit_code/stdout, mirroring the exec/exec_raw
// built-ins' result shape.
func (v *VM) execShell(op isa.Opcode, pos int, raw bool) *VMError {
	line, err := v.data.Pop(op)
	if err != nil {
		return err
	}
	cmd, ok := line.(*object.String)
	if !ok {
		return NewVMErrorAt(TypeError, "shell command must be a string", op, pos)
	}

	var argv []string
	if raw {
		argv = strings.Fields(cmd.Value)
	} else {
		shell := v.platform.SysShell()
		if len(shell) == 0 {
			return NewVMErrorAt(IllegalOperationError, "shell is not supported on this platform", op, pos)
		}
		argv = append(append([]string{}, shell...), cmd.Value)
	}

	code, out, eerr := v.platform.Exec(argv)
	if eerr != nil {
		return wrapVMError(BuiltinFunctionError, eerr, op, pos)
	}

	result := object.NewHashTable()
	result.SetIndexed(&object.String{Value: "exit_code"}, &object.Integer{Value: int64(code)})
	result.SetIndexed(&object.String{Value: "stdout"}, &object.Bytes{Value: out})
	_, perr := v.data.Push(result, op)
	return perr
}

func (v *VM) execPop(op isa.Opcode) *VMError {
	_, err := v.data.Pop(op)
	return err
}
