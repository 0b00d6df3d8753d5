package bytecode

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Disassemble renders a human-readable listing of a complete object
// image (header included). symbols maps addresses to label names and may
// be nil; when a symbol matches an instruction address a label line is
// printed, and immediates that resolve to a symbol are annotated.
func Disassemble(obj []byte, symbols map[uint64]string) (string, error) {
	hdr, err := DecodeHeader(obj)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "; Pocol object v%d\n", hdr.Version)
	fmt.Fprintf(&sb, "; entry: 0x%06X  code: %d bytes\n", hdr.Entry, hdr.CodeSize)
	sb.WriteString("\n")

	end := uint64(HeaderSize) + hdr.CodeSize
	if end > uint64(len(obj)) {
		end = uint64(len(obj))
	}

	pc := uint64(HeaderSize)
	for pc < end {
		if name, ok := symbols[pc]; ok {
			fmt.Fprintf(&sb, "%s:\n", name)
		}

		at := pc
		def, ok := Lookup(Opcode(obj[pc]))
		if !ok || pc+1 >= end {
			// Not decodable as an instruction; dump the byte and
			// resynchronize one byte later.
			fmt.Fprintf(&sb, "0x%06X:   .byte 0x%02X\n", at, obj[pc])
			pc++
			continue
		}

		desc := obj[pc+1]
		types := [2]OperandType{DescriptorOp1(desc), DescriptorOp2(desc)}
		pc += 2

		operands := make([]string, 0, def.Operands)
		truncated := false
		for i := 0; i < def.Operands; i++ {
			switch types[i] {
			case OperandRegister:
				if pc >= end {
					truncated = true
					break
				}
				operands = append(operands, fmt.Sprintf("r%d", obj[pc]&RegisterMask))
				pc++
			case OperandImmediate:
				if pc+8 > end {
					truncated = true
					break
				}
				v := binary.LittleEndian.Uint64(obj[pc : pc+8])
				if name, ok := symbols[v]; ok {
					operands = append(operands, fmt.Sprintf("%d <%s>", v, name))
				} else {
					operands = append(operands, fmt.Sprintf("%d", v))
				}
				pc += 8
			}
		}
		if truncated {
			fmt.Fprintf(&sb, "0x%06X:   .byte 0x%02X ; truncated %s\n", at, byte(def.Opcode), def.Name)
			pc = end
			break
		}

		fmt.Fprintf(&sb, "0x%06X:   %-5s %s\n", at, def.Name, strings.Join(operands, ", "))
	}

	return sb.String(), nil
}
