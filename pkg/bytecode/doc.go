// Package bytecode defines the Pocol object ABI: the instruction set,
// the operand descriptor byte, the object-file header, and the
// little-endian emitter the assembler writes through.
//
// # Object format
//
// An object file is a 24-byte header followed by a contiguous code
// region. Everything is little-endian:
//
//	[magic:4] [version:4] [entry_point:8] [code_size:8] [code...]
//
// The loader copies the whole file, header included, into machine memory
// at address 0 and starts executing at entry_point, so every address in
// an object (labels, jump targets) is an absolute file offset.
//
// # Instruction encoding
//
// Each instruction is opcode (1 byte) + descriptor (1 byte) + operands.
// The descriptor packs two 4-bit operand types, first operand in the low
// nibble. A register operand is one byte (low three bits index r0-r7,
// upper bits ignored); an immediate is eight bytes little-endian.
//
// The package also provides a disassembler used by the posm -d listing.
package bytecode
