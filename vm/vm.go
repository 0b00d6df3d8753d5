// Package vm implements the Pocol machine: a register-and-stack
// interpreter over a flat 640,000-byte memory. The loader copies an
// object file verbatim (header included) into memory at address 0 and
// execution starts at the header's entry point.
//
// Execution is strictly single-threaded. The limit parameter of Run is
// the one cooperative cancellation mechanism: an embedding host can
// bound a runaway program without killing the process.
package vm

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/John-fried/PocolVM/pkg/bytecode"
)

const (
	// MemorySize is the size of the instruction-addressable memory.
	MemorySize = 640 * 1000

	// StackSize is the number of slots in the value stack.
	StackSize = 1024

	// NumRegisters is the number of general-purpose registers.
	NumRegisters = bytecode.NumRegisters
)

// Kind enumerates runtime trap kinds. The numeric values double as the
// runner's process exit status, with OK meaning normal completion.
type Kind int

const (
	OK Kind = iota
	IllegalInstruction
	IllegalAccess
	StackOverflow
	StackUnderflow
)

// String returns the diagnostic name of the trap kind.
func (k Kind) String() string {
	switch k {
	case OK:
		return "OK"
	case IllegalInstruction:
		return "unrecognized opcode"
	case IllegalAccess:
		return "illegal memory access"
	case StackOverflow:
		return "stack overflow"
	case StackUnderflow:
		return "stack underflow"
	default:
		return "???"
	}
}

// Trap is a fatal runtime error. Execution does not continue past it;
// PC is the address of the faulting instruction.
type Trap struct {
	Kind Kind
	PC   uint64
}

func (t *Trap) Error() string {
	return fmt.Sprintf("%s (pc: 0x%X)", t.Kind, t.PC)
}

// VM is the whole machine state. Every field is exported so external
// tools (a debugger, a future JIT) can inspect and resume it; execution
// maintains no hidden state beyond these fields.
type VM struct {
	Memory    [MemorySize]byte
	PC        uint64 // program counter
	Stack     [StackSize]uint64
	SP        uint64 // stack pointer: next free slot
	Registers [NumRegisters]uint64
	Halted    bool

	// Out receives the output of print instructions.
	// Defaults to os.Stdout.
	Out io.Writer
}

// New returns a zeroed machine writing to stdout.
func New() *VM {
	m := new(VM)
	m.Out = os.Stdout
	return m
}

// Run executes instructions until the machine halts, a trap occurs, or
// the instruction budget is exhausted. limit < 0 means unbounded. A nil
// return means the machine halted normally or ran out of budget.
func (m *VM) Run(limit int) error {
	for limit != 0 && !m.Halted {
		if err := m.Step(); err != nil {
			return err
		}
		if limit > 0 {
			limit--
		}
	}
	return nil
}

// Step fetches, decodes and executes a single instruction.
func (m *VM) Step() error {
	if m.PC >= MemorySize {
		return &Trap{Kind: IllegalAccess, PC: m.PC}
	}
	at := m.PC

	op := bytecode.Opcode(m.Memory[m.PC])
	m.PC++
	if m.PC >= MemorySize {
		return &Trap{Kind: IllegalAccess, PC: at}
	}
	desc := m.Memory[m.PC]
	m.PC++

	op1 := bytecode.DescriptorOp1(desc)
	op2 := bytecode.DescriptorOp2(desc)

	switch op {
	case bytecode.OpHalt:
		m.Halted = true

	case bytecode.OpPush:
		v, err := m.operand(op1, at)
		if err != nil {
			return err
		}
		if m.SP >= StackSize {
			return &Trap{Kind: StackOverflow, PC: at}
		}
		m.Stack[m.SP] = v
		m.SP++

	case bytecode.OpPop:
		if m.SP == 0 {
			return &Trap{Kind: StackUnderflow, PC: at}
		}
		r, err := m.fetchByte(at)
		if err != nil {
			return err
		}
		m.SP--
		m.Registers[r&bytecode.RegisterMask] = m.Stack[m.SP]

	case bytecode.OpAdd:
		dest, err := m.fetchByte(at)
		if err != nil {
			return err
		}
		src, err := m.operand(op2, at)
		if err != nil {
			return err
		}
		m.Registers[dest&bytecode.RegisterMask] += src

	case bytecode.OpJmp:
		v, err := m.operand(op1, at)
		if err != nil {
			return err
		}
		m.PC = v

	case bytecode.OpPrint:
		v, err := m.operand(op1, at)
		if err != nil {
			return err
		}
		fmt.Fprintf(m.Out, "%d", v)

	default:
		return &Trap{Kind: IllegalInstruction, PC: at}
	}

	return nil
}

// operand fetches one operand value according to its descriptor type:
// a register operand consumes one byte and reads the named register, an
// immediate consumes eight bytes little-endian, none consumes nothing.
func (m *VM) operand(typ bytecode.OperandType, at uint64) (uint64, error) {
	switch typ {
	case bytecode.OperandRegister:
		b, err := m.fetchByte(at)
		if err != nil {
			return 0, err
		}
		return m.Registers[b&bytecode.RegisterMask], nil
	case bytecode.OperandImmediate:
		return m.fetch64(at)
	}
	return 0, nil
}

func (m *VM) fetchByte(at uint64) (byte, error) {
	if m.PC >= MemorySize {
		return 0, &Trap{Kind: IllegalAccess, PC: at}
	}
	b := m.Memory[m.PC]
	m.PC++
	return b, nil
}

func (m *VM) fetch64(at uint64) (uint64, error) {
	if m.PC > MemorySize-8 {
		return 0, &Trap{Kind: IllegalAccess, PC: at}
	}
	v := binary.LittleEndian.Uint64(m.Memory[m.PC : m.PC+8])
	m.PC += 8
	return v, nil
}
