// Package isa defines the instruction set the VM core interprets: the
// opcode byte values, each opcode's operand widths, and the helpers used
// to decode an operand out of an encoded instruction. Encoding an
// instruction stream from source is the compiler's job (out of scope
// here); this package only has to know enough about the encoding to
// fetch-decode one instruction at a time.
package isa

import (
	"encoding/binary"
	"fmt"
)

// Instructions is a stream of encoded bytecode: opcode bytes interleaved
// with their big-endian operand bytes.
type Instructions []byte

// Opcode identifies one instruction kind. The numeric value has no
// significance beyond being distinct and fitting in one byte.
type Opcode byte

const (
	OpConstant Opcode = iota
	OpLoadGlobal
	OpStoreGlobal
	OpLoadLocal
	OpStoreLocal
	OpLoadFree
	OpLoadBuiltin

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpLAnd
	OpLOr
	OpGt
	OpGte
	OpLt
	OpLte
	OpEq
	OpNeq
	OpNeg
	OpLNot

	OpGetIndex
	OpSetIndex

	OpBuildArray
	OpBuildHash

	OpClosure
	OpCall
	OpRet
	OpRetVal

	OpJump
	OpNotJump

	OpIter
	OpIterNext
	OpIterNextEnum

	OpAssertFail

	OpGetAttr
	OpCallAttr

	OpLaunchThread
	OpLaunchAndJoin

	OpShell
	OpShellRaw

	OpPop
)

// Definition describes an opcode's mnemonic and the byte width of each of
// its operands, in encoding order.
type Definition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*Definition{
	OpConstant:    {"Constant", []int{2}},
	OpLoadGlobal:  {"LoadGlobal", []int{2}},
	OpStoreGlobal: {"StoreGlobal", []int{2}},
	OpLoadLocal:   {"LoadLocal", []int{1}},
	OpStoreLocal:  {"StoreLocal", []int{1}},
	OpLoadFree:    {"LoadFree", []int{1}},
	OpLoadBuiltin: {"LoadBuiltIn", []int{1}},

	OpAdd:  {"Add", []int{}},
	OpSub:  {"Sub", []int{}},
	OpMul:  {"Mul", []int{}},
	OpDiv:  {"Div", []int{}},
	OpMod:  {"Mod", []int{}},
	OpAnd:  {"And", []int{}},
	OpOr:   {"Or", []int{}},
	OpLAnd: {"LAnd", []int{}},
	OpLOr:  {"LOr", []int{}},
	OpGt:   {"Gt", []int{}},
	OpGte:  {"Gte", []int{}},
	OpLt:   {"Lt", []int{}},
	OpLte:  {"Lte", []int{}},
	OpEq:   {"Eq", []int{}},
	OpNeq:  {"Neq", []int{}},
	OpNeg:  {"Neg", []int{}},
	OpLNot: {"LNot", []int{}},

	OpGetIndex: {"GetIndex", []int{}},
	OpSetIndex: {"SetIndex", []int{}},

	OpBuildArray: {"BuildArray", []int{2}},
	OpBuildHash:  {"BuildHash", []int{2}},

	OpClosure: {"Closure", []int{2, 1}},
	OpCall:    {"Call", []int{1}},
	OpRet:     {"Ret", []int{}},
	OpRetVal:  {"RetVal", []int{}},

	OpJump:    {"Jump", []int{2}},
	OpNotJump: {"NotJump", []int{2}},

	OpIter:         {"Iter", []int{}},
	OpIterNext:     {"IterNext", []int{2}},
	OpIterNextEnum: {"IterNextEnum", []int{2}},

	OpAssertFail: {"AssertFail", []int{}},

	OpGetAttr:  {"GetAttr", []int{1}},
	OpCallAttr: {"CallAttr", []int{1, 1}},

	OpLaunchThread:   {"LaunchThread", []int{1}},
	OpLaunchAndJoin:  {"LaunchAndJoin", []int{1}},

	OpShell:    {"Shell", []int{}},
	OpShellRaw: {"ShellRaw", []int{}},

	OpPop: {"Pop", []int{}},
}

// Lookup returns the Definition for an opcode byte, or an error if it is
// not a recognized instruction kind.
func Lookup(op byte) (*Definition, error) {
	def, ok := definitions[Opcode(op)]
	if !ok {
		return nil, fmt.Errorf("opcode %d undefined", op)
	}
	return def, nil
}

// Width returns the total encoded length of an instruction with this
// definition, including the one opcode byte.
func (d *Definition) Width() int {
	w := 1
	for _, n := range d.OperandWidths {
		w += n
	}
	return w
}

// Make encodes one instruction (opcode plus operands) into bytes. It is
// provided for tests that need to hand-assemble an instruction stream
// without a compiler.
func Make(op Opcode, operands ...int) []byte {
	def, ok := definitions[op]
	if !ok {
		return []byte{}
	}

	instructionLen := def.Width()
	instruction := make([]byte, instructionLen)
	instruction[0] = byte(op)

	offset := 1
	for i, o := range operands {
		width := def.OperandWidths[i]
		switch width {
		case 2:
			binary.BigEndian.PutUint16(instruction[offset:], uint16(o))
		case 1:
			instruction[offset] = byte(o)
		}
		offset += width
	}

	return instruction
}

// ReadOperands decodes every operand of a definition starting at ins[0],
// returning the decoded operands and how many bytes were consumed.
func ReadOperands(def *Definition, ins Instructions) ([]int, int) {
	operands := make([]int, len(def.OperandWidths))
	offset := 0

	for i, width := range def.OperandWidths {
		switch width {
		case 2:
			operands[i] = int(ReadUint16(ins[offset:]))
		case 1:
			operands[i] = int(ReadUint8(ins[offset:]))
		}
		offset += width
	}

	return operands, offset
}

// ReadUint16 decodes a big-endian two-byte operand.
func ReadUint16(ins Instructions) uint16 {
	return binary.BigEndian.Uint16(ins)
}

// ReadUint8 decodes a one-byte operand.
func ReadUint8(ins Instructions) uint8 {
	return uint8(ins[0])
}

// String renders a decoded instruction stream, one instruction per line,
// for diagnostics. Mirrors the disassembly helper the compiler's own
// tooling would otherwise own, kept minimal since disassembly proper is
// out of scope.
func (ins Instructions) String() string {
	var out []byte
	i := 0
	for i < len(ins) {
		def, err := Lookup(ins[i])
		if err != nil {
			out = append(out, []byte(fmt.Sprintf("ERROR: %s\n", err))...)
			i++
			continue
		}

		operands, read := ReadOperands(def, ins[i+1:])
		out = append(out, []byte(fmt.Sprintf("%04d %s\n", i, fmtInstruction(def, operands)))...)
		i += 1 + read
	}
	return string(out)
}

func fmtInstruction(def *Definition, operands []int) string {
	switch len(operands) {
	case 0:
		return def.Name
	case 1:
		return fmt.Sprintf("%s %d", def.Name, operands[0])
	case 2:
		return fmt.Sprintf("%s %d %d", def.Name, operands[0], operands[1])
	}
	return fmt.Sprintf("ERROR: unhandled operand count for %s", def.Name)
}
