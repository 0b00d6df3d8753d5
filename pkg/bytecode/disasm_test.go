package bytecode

import (
	"strings"
	"testing"
)

// buildObject assembles a tiny object by hand: push 7; pop r0; halt.
func buildObject() []byte {
	e := NewEmitter()
	e.Raw(make([]byte, HeaderSize))

	e.Byte(byte(OpPush))
	e.Byte(PackDescriptor(OperandImmediate, OperandNone))
	e.Uint64(7)

	e.Byte(byte(OpPop))
	e.Byte(PackDescriptor(OperandRegister, OperandNone))
	e.Byte(0)

	e.Byte(byte(OpHalt))
	e.Byte(0x00)

	h := Header{
		Magic:    Magic,
		Version:  Version,
		Entry:    HeaderSize,
		CodeSize: uint64(e.Len() - HeaderSize),
	}
	e.Patch(0, h.Encode())
	return e.Bytes()
}

func TestDisassemble(t *testing.T) {
	out, err := Disassemble(buildObject(), nil)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}

	for _, want := range []string{"push", "pop", "halt", "r0", "7", "entry: 0x000018"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
}

func TestDisassembleSymbols(t *testing.T) {
	symbols := map[uint64]string{HeaderSize: "_start"}
	out, err := Disassemble(buildObject(), symbols)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if !strings.Contains(out, "_start:") {
		t.Errorf("listing missing label line:\n%s", out)
	}
}

func TestDisassembleBadHeader(t *testing.T) {
	if _, err := Disassemble([]byte{1, 2, 3}, nil); err == nil {
		t.Error("Disassemble(short) = nil error, want error")
	}
}

func TestDisassembleUnknownByte(t *testing.T) {
	e := NewEmitter()
	e.Raw(make([]byte, HeaderSize))
	e.Byte(0xEE)
	h := Header{Magic: Magic, Version: Version, Entry: HeaderSize, CodeSize: 1}
	e.Patch(0, h.Encode())

	out, err := Disassemble(e.Bytes(), nil)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if !strings.Contains(out, ".byte 0xEE") {
		t.Errorf("listing missing raw byte fallback:\n%s", out)
	}
}
