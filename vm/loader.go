package vm

import (
	"errors"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/John-fried/PocolVM/pkg/bytecode"
)

var log = commonlog.GetLogger("pocol.vm")

// Load errors.
var (
	ErrEmptyObject = errors.New("no program to load")
	ErrTooLarge    = errors.New("size exceeds memory limit")
	ErrBadMagic    = errors.New("wrong magic number")
	ErrBadVersion  = errors.New("unsupported object version")
	ErrNotRegular  = errors.New("file format not recognized")
)

// LoadObject initializes the machine from a complete object image. The
// image is copied verbatim into memory at address 0, header included;
// the program counter is set to the header's entry point and all other
// execution state is cleared.
func (m *VM) LoadObject(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyObject
	}
	if len(data) > MemorySize {
		return fmt.Errorf("%w: %d/%d bytes", ErrTooLarge, len(data), MemorySize)
	}

	hdr, err := bytecode.DecodeHeader(data)
	if err != nil {
		return err
	}
	if hdr.Magic != bytecode.Magic {
		return fmt.Errorf("%w `0x%08X`", ErrBadMagic, hdr.Magic)
	}
	if hdr.Version != bytecode.Version {
		return fmt.Errorf("%w %d (expected %d)", ErrBadVersion, hdr.Version, bytecode.Version)
	}

	clear(m.Memory[:])
	copy(m.Memory[:], data)
	clear(m.Stack[:])
	clear(m.Registers[:])
	m.SP = 0
	m.Halted = false
	m.PC = hdr.Entry

	log.Debugf("loaded %d bytes, entry 0x%X, code %d bytes", len(data), hdr.Entry, hdr.CodeSize)
	return nil
}

// LoadFile reads an object file and returns a machine ready to run.
func LoadFile(path string) (*VM, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}
	if fi.Size() == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyObject)
	}
	if fi.Size() > MemorySize {
		return nil, fmt.Errorf("%s: %w: %d/%d bytes", path, ErrTooLarge, fi.Size(), MemorySize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	m := New()
	if err := m.LoadObject(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
