package compiler

import "errors"

// ErrDuplicateSymbol is returned by Push when a symbol with the same
// kind and name already exists.
var ErrDuplicateSymbol = errors.New("duplicate symbol")

// SymbolKind distinguishes symbol namespaces. Labels are the only kind
// the assembler defines today.
type SymbolKind int

const (
	SymbolLabel SymbolKind = iota
)

// Symbol is one named entry in the assembler symbol table.
type Symbol struct {
	Name string
	Kind SymbolKind

	// Label payload.
	PC      uint64   // byte offset of the label in the object file
	Pos     Position // source position of the definition
	Defined bool
}

// SymbolTable tracks label definitions across both assembler passes.
// Lookup is a linear scan; label counts are small.
type SymbolTable struct {
	symbols []Symbol
}

// Find returns the symbol with the given kind and name, or nil.
// The returned pointer stays valid until the next Push.
func (t *SymbolTable) Find(kind SymbolKind, name string) *Symbol {
	for i := range t.symbols {
		if t.symbols[i].Kind == kind && t.symbols[i].Name == name {
			return &t.symbols[i]
		}
	}
	return nil
}

// Push inserts a new symbol. The table owns the name from here on.
func (t *SymbolTable) Push(sym Symbol) error {
	if t.Find(sym.Kind, sym.Name) != nil {
		return ErrDuplicateSymbol
	}
	t.symbols = append(t.symbols, sym)
	return nil
}

// Len returns the number of symbols in the table.
func (t *SymbolTable) Len() int {
	return len(t.symbols)
}

// Labels returns a name-to-address map of all defined labels.
func (t *SymbolTable) Labels() map[string]uint64 {
	out := make(map[string]uint64, len(t.symbols))
	for _, s := range t.symbols {
		if s.Kind == SymbolLabel && s.Defined {
			out[s.Name] = s.PC
		}
	}
	return out
}
