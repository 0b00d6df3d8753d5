package compiler

import (
	"errors"
	"testing"
)

func TestSymbolTablePushFind(t *testing.T) {
	var tab SymbolTable

	if s := tab.Find(SymbolLabel, "loop"); s != nil {
		t.Errorf("Find on empty table = %+v, want nil", s)
	}

	if err := tab.Push(Symbol{Name: "loop", Kind: SymbolLabel, PC: 42, Defined: true}); err != nil {
		t.Fatalf("Push: %v", err)
	}

	s := tab.Find(SymbolLabel, "loop")
	if s == nil {
		t.Fatal("Find(loop) = nil after Push")
	}
	if s.PC != 42 || !s.Defined {
		t.Errorf("Find(loop) = %+v, want PC 42 defined", s)
	}
	if tab.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tab.Len())
	}
}

func TestSymbolTableDuplicate(t *testing.T) {
	var tab SymbolTable

	if err := tab.Push(Symbol{Name: "x", Kind: SymbolLabel}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	err := tab.Push(Symbol{Name: "x", Kind: SymbolLabel})
	if !errors.Is(err, ErrDuplicateSymbol) {
		t.Errorf("second Push = %v, want ErrDuplicateSymbol", err)
	}
	if tab.Len() != 1 {
		t.Errorf("Len() after duplicate = %d, want 1", tab.Len())
	}
}

func TestSymbolTableLabels(t *testing.T) {
	var tab SymbolTable
	tab.Push(Symbol{Name: "_start", Kind: SymbolLabel, PC: 24, Defined: true})
	tab.Push(Symbol{Name: "end", Kind: SymbolLabel, PC: 36, Defined: true})
	tab.Push(Symbol{Name: "ghost", Kind: SymbolLabel})

	labels := tab.Labels()
	if len(labels) != 2 {
		t.Fatalf("Labels() has %d entries, want 2", len(labels))
	}
	if labels["_start"] != 24 || labels["end"] != 36 {
		t.Errorf("Labels() = %v, want _start:24 end:36", labels)
	}
}
