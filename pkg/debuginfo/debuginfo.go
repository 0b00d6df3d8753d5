// Package debuginfo defines the debug sidecar the assembler can write
// next to an object file: a source map from code offsets to source
// positions plus the label symbols of the build. Tools use it to
// annotate disassembly listings and trap reports with source locations.
package debuginfo

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// Entry maps a code offset (an absolute object-file address) to the
// source position of the instruction emitted there.
type Entry struct {
	Offset uint64 `cbor:"o"`
	Line   uint32 `cbor:"l"`
	Column uint32 `cbor:"c"`
}

// Symbol is one label and its address.
type Symbol struct {
	Name string `cbor:"n"`
	Addr uint64 `cbor:"a"`
}

// Info is the sidecar payload for one object file.
type Info struct {
	Source  string   `cbor:"src"` // assembly source path
	Entries []Entry  `cbor:"map"` // ascending by Offset
	Symbols []Symbol `cbor:"sym"`
}

// New returns an empty Info for the given source path.
func New(source string) *Info {
	return &Info{Source: source}
}

// Add appends a source-map entry. Offsets must be added in ascending
// order; the assembler emits instructions in address order, so they are.
func (in *Info) Add(offset uint64, line, column int) {
	in.Entries = append(in.Entries, Entry{
		Offset: offset,
		Line:   uint32(line),
		Column: uint32(column),
	})
}

// AddSymbol appends a label symbol.
func (in *Info) AddSymbol(name string, addr uint64) {
	in.Symbols = append(in.Symbols, Symbol{Name: name, Addr: addr})
}

// Lookup returns the source-map entry nearest at or before offset.
func (in *Info) Lookup(offset uint64) (Entry, bool) {
	for i := len(in.Entries) - 1; i >= 0; i-- {
		if in.Entries[i].Offset <= offset {
			return in.Entries[i], true
		}
	}
	return Entry{}, false
}

// SymbolTable returns the symbols as an address-to-name map, the shape
// the disassembler consumes.
func (in *Info) SymbolTable() map[uint64]string {
	out := make(map[uint64]string, len(in.Symbols))
	for _, s := range in.Symbols {
		out[s.Addr] = s.Name
	}
	return out
}

// Path returns the conventional sidecar path for an object file.
func Path(object string) string {
	return object + ".dbg"
}

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("debuginfo: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes an Info to CBOR bytes.
func Marshal(in *Info) ([]byte, error) {
	return cborEncMode.Marshal(in)
}

// Unmarshal deserializes an Info from CBOR bytes.
func Unmarshal(data []byte) (*Info, error) {
	var in Info
	if err := cbor.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("debuginfo: unmarshal: %w", err)
	}
	return &in, nil
}

// WriteFile marshals in and writes it to path.
func WriteFile(path string, in *Info) error {
	data, err := Marshal(in)
	if err != nil {
		return fmt.Errorf("debuginfo: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("debuginfo: write %s: %w", path, err)
	}
	return nil
}

// ReadFile reads and unmarshals the sidecar at path.
func ReadFile(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}
