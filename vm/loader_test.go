package vm

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/John-fried/PocolVM/pkg/bytecode"
)

// object builds a loadable image: header plus the given code.
func object(entry uint64, code []byte) []byte {
	h := bytecode.Header{
		Magic:    bytecode.Magic,
		Version:  bytecode.Version,
		Entry:    entry,
		CodeSize: uint64(len(code)),
	}
	return append(h.Encode(), code...)
}

func TestLoadObject(t *testing.T) {
	code := inst(bytecode.OpHalt, bytecode.OperandNone, bytecode.OperandNone)
	data := object(bytecode.HeaderSize, code)

	m := New()
	m.PC = 999
	m.SP = 3
	m.Registers[0] = 1
	m.Halted = true

	if err := m.LoadObject(data); err != nil {
		t.Fatalf("LoadObject: %v", err)
	}

	if m.PC != bytecode.HeaderSize {
		t.Errorf("PC = %d, want entry %d", m.PC, bytecode.HeaderSize)
	}
	if m.SP != 0 || m.Registers[0] != 0 || m.Halted {
		t.Error("execution state not cleared")
	}
	// The image sits at address 0, header included.
	if m.Memory[bytecode.HeaderSize] != byte(bytecode.OpHalt) {
		t.Errorf("memory[%d] = 0x%02X, want halt", bytecode.HeaderSize, m.Memory[bytecode.HeaderSize])
	}

	if err := m.Run(-1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !m.Halted {
		t.Error("machine not halted")
	}
}

func TestLoadObjectEmpty(t *testing.T) {
	m := New()
	if err := m.LoadObject(nil); !errors.Is(err, ErrEmptyObject) {
		t.Errorf("LoadObject(nil) = %v, want ErrEmptyObject", err)
	}
}

func TestLoadObjectTooLarge(t *testing.T) {
	m := New()
	if err := m.LoadObject(make([]byte, MemorySize+1)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("LoadObject(oversized) = %v, want ErrTooLarge", err)
	}
}

func TestLoadObjectBadMagic(t *testing.T) {
	data := object(bytecode.HeaderSize, nil)
	data[0] = 'x'

	m := New()
	if err := m.LoadObject(data); !errors.Is(err, ErrBadMagic) {
		t.Errorf("LoadObject = %v, want ErrBadMagic", err)
	}
}

func TestLoadObjectBadVersion(t *testing.T) {
	data := object(bytecode.HeaderSize, nil)
	data[4] = 99

	m := New()
	if err := m.LoadObject(data); !errors.Is(err, ErrBadVersion) {
		t.Errorf("LoadObject = %v, want ErrBadVersion", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.pob")
	code := inst(bytecode.OpHalt, bytecode.OperandNone, bytecode.OperandNone)
	if err := os.WriteFile(path, object(bytecode.HeaderSize, code), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if m.PC != bytecode.HeaderSize {
		t.Errorf("PC = %d, want %d", m.PC, bytecode.HeaderSize)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.pob")); err == nil {
		t.Error("LoadFile(missing) = nil error, want error")
	}
}

func TestLoadFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pob")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); !errors.Is(err, ErrEmptyObject) {
		t.Errorf("LoadFile(empty) = %v, want ErrEmptyObject", err)
	}
}

func TestLoadFileDirectory(t *testing.T) {
	if _, err := LoadFile(t.TempDir()); !errors.Is(err, ErrNotRegular) {
		t.Errorf("LoadFile(dir) = %v, want ErrNotRegular", err)
	}
}
