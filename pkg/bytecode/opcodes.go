package bytecode

import "fmt"

// Opcode identifies a virtual machine instruction.
// Opcode byte values are part of the object ABI and must not change.
type Opcode byte

const (
	OpHalt  Opcode = 0x00 // Stop execution
	OpPush  Opcode = 0x01 // Push operand onto the value stack
	OpPop   Opcode = 0x02 // Pop top of stack into a register
	OpAdd   Opcode = 0x03 // registers[dest] += source operand (wrapping)
	OpJmp   Opcode = 0x04 // Set the program counter to the operand value
	OpPrint Opcode = 0x05 // Write operand as unsigned decimal, no newline

	// 0x06 is reserved for a future syscall instruction.

	opcodeCount = 0x06
)

// OperandType tags one operand slot of the descriptor byte.
// Encoded in 4 bits so that a pair fits in one byte.
type OperandType byte

const (
	OperandNone      OperandType = 0x00
	OperandRegister  OperandType = 0x01 // r0-r7, 1 byte
	OperandImmediate OperandType = 0x02 // 64-bit little-endian, 8 bytes
)

// Width returns the encoded size of an operand of this type in bytes.
func (t OperandType) Width() uint64 {
	switch t {
	case OperandRegister:
		return 1
	case OperandImmediate:
		return 8
	default:
		return 0
	}
}

// String returns a human-readable name for the operand type.
func (t OperandType) String() string {
	switch t {
	case OperandNone:
		return "none"
	case OperandRegister:
		return "register"
	case OperandImmediate:
		return "immediate"
	default:
		return fmt.Sprintf("OperandType(%d)", byte(t))
	}
}

// PackDescriptor packs two operand types into a descriptor byte,
// first operand in the low nibble, second in the high nibble.
func PackDescriptor(op1, op2 OperandType) byte {
	return byte(op2)<<4 | byte(op1)&0x0F
}

// DescriptorOp1 extracts the first operand type from a descriptor byte.
func DescriptorOp1(desc byte) OperandType {
	return OperandType(desc & 0x0F)
}

// DescriptorOp2 extracts the second operand type from a descriptor byte.
func DescriptorOp2(desc byte) OperandType {
	return OperandType(desc >> 4 & 0x0F)
}

const (
	// NumRegisters is the number of general-purpose registers.
	NumRegisters = 8

	// RegisterMask keeps register indices in range. Upper bits of a
	// register operand byte are ignored at both emit and execute time.
	RegisterMask = 0x07
)

// InstDef describes one entry of the instruction table.
type InstDef struct {
	Opcode   Opcode
	Name     string
	Operands int // operand arity: 0, 1 or 2
}

// instTable is the instruction set, indexed by opcode.
var instTable = [opcodeCount]InstDef{
	OpHalt:  {Opcode: OpHalt, Name: "halt", Operands: 0},
	OpPush:  {Opcode: OpPush, Name: "push", Operands: 1},
	OpPop:   {Opcode: OpPop, Name: "pop", Operands: 1},
	OpAdd:   {Opcode: OpAdd, Name: "add", Operands: 2},
	OpJmp:   {Opcode: OpJmp, Name: "jmp", Operands: 1},
	OpPrint: {Opcode: OpPrint, Name: "print", Operands: 1},
}

// Lookup returns the definition for an opcode.
func Lookup(op Opcode) (InstDef, bool) {
	if int(op) >= len(instTable) {
		return InstDef{}, false
	}
	return instTable[op], true
}

// LookupMnemonic returns the definition whose mnemonic matches name
// exactly. Mnemonics are case-sensitive.
func LookupMnemonic(name string) (InstDef, bool) {
	for _, def := range instTable {
		if def.Name == name {
			return def, true
		}
	}
	return InstDef{}, false
}

// String returns the mnemonic for known opcodes.
func (op Opcode) String() string {
	if def, ok := Lookup(op); ok {
		return def.Name
	}
	return fmt.Sprintf("Opcode(0x%02X)", byte(op))
}
