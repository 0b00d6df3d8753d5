package compiler

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/John-fried/PocolVM/pkg/bytecode"
	"github.com/John-fried/PocolVM/pkg/debuginfo"
)

// EntryLabel is the label the finished object starts executing at.
// A program that never defines it fails to link.
const EntryLabel = "_start"

// Assembler drives the lexer, symbol table and emitter over two passes
// of the same source to produce an object image. The first pass
// discovers label addresses and validates instruction shapes; only the
// second pass emits bytes. Both passes share the symbol table and a
// virtual program counter that tracks the byte offset of the next
// emission.
//
// The assembler never aborts on a source error. It reports the
// diagnostic, skips to the next line, and keeps going so a single run
// surfaces as many errors as possible. A non-zero error count suppresses
// the output.
type Assembler struct {
	// Diag receives diagnostics in the path:line:col: error: message
	// form. Defaults to os.Stderr.
	Diag io.Writer

	// Color enables ANSI bold/red in diagnostics. On by default.
	Color bool

	// Debug enables collection of a debug-info sidecar during pass 2.
	Debug bool

	path string
	lex  *Lexer
	syms SymbolTable
	emit *bytecode.Emitter

	pass    int    // 1 or 2
	vpc     uint64 // byte offset of the next emission
	planned uint64 // vpc at the end of pass 1

	errors int
	dbg    *debuginfo.Info
}

// NewAssembler creates an assembler for the given source. path is used
// in diagnostics only.
func NewAssembler(path, source string) *Assembler {
	a := &Assembler{
		Diag:  os.Stderr,
		Color: true,
		path:  path,
	}
	a.lex = NewLexer(source, a.lexError)
	return a
}

// Errors returns the number of diagnostics reported so far.
func (a *Assembler) Errors() int {
	return a.errors
}

// Symbols returns the addresses of all defined labels.
func (a *Assembler) Symbols() map[string]uint64 {
	return a.syms.Labels()
}

// DebugInfo returns the collected sidecar, or nil when Debug was off.
func (a *Assembler) DebugInfo() *debuginfo.Info {
	return a.dbg
}

// PlannedEnd returns the virtual program counter at the end of the
// first pass. After a successful assembly it equals the emitted size;
// the header finalization cross-checks the two.
func (a *Assembler) PlannedEnd() uint64 {
	return a.planned
}

// Assemble runs both passes and finalizes the header. On any error the
// diagnostics have been written to Diag and no object is returned.
func (a *Assembler) Assemble() ([]byte, error) {
	if a.Debug {
		a.dbg = debuginfo.New(a.path)
	}

	for pass := 1; pass <= 2; pass++ {
		a.pass = pass
		a.vpc = bytecode.HeaderSize
		a.lex.Reset()
		if pass == 2 {
			a.emit = bytecode.NewEmitter()
			a.emit.Raw(make([]byte, bytecode.HeaderSize))
		}
		a.run()
		if pass == 1 {
			a.planned = a.vpc
		}
	}
	return a.finalize()
}

// finalize resolves the entry point, cross-checks the two passes and
// patches the header. Called once, after both passes.
func (a *Assembler) finalize() ([]byte, error) {
	var entry uint64
	if s := a.syms.Find(SymbolLabel, EntryLabel); s != nil && s.Defined {
		entry = s.PC
	} else {
		a.reportNoPos("entry label `%s` not defined", EntryLabel)
	}

	// The passes must agree byte for byte; a mismatch means the label
	// addresses baked into the code are stale.
	if got := uint64(a.emit.Len()); got != a.planned {
		a.reportNoPos("internal error: planned %d bytes but emitted %d", a.planned, got)
	}

	if n := a.errors; n > 0 {
		a.reportNoPos("assembly failed (%d total errors)", n)
		return nil, fmt.Errorf("assembly of %s failed with %d errors", a.path, n)
	}

	hdr := bytecode.Header{
		Magic:    bytecode.Magic,
		Version:  bytecode.Version,
		Entry:    entry,
		CodeSize: uint64(a.emit.Len()) - bytecode.HeaderSize,
	}
	a.emit.Patch(0, hdr.Encode())

	if a.dbg != nil {
		for name, addr := range a.syms.Labels() {
			a.dbg.AddSymbol(name, addr)
		}
	}
	return a.emit.Bytes(), nil
}

// run walks the token stream once. Shared by both passes; emission and
// most diagnostics are gated on a.pass.
func (a *Assembler) run() {
	for {
		tok := a.lex.Next()
		switch tok.Type {
		case TokenEOF:
			return
		case TokenLabel:
			a.defineLabel(tok)
			a.lex.ConsumeUntilNewline()
		case TokenIdent:
			a.statement(tok)
		default:
			// Stray integers and illegal bytes at statement position
			// are skipped; the lexer already reported illegal bytes.
		}
	}
}

// defineLabel records a label at the current virtual program counter.
// Definitions happen in pass 1; pass 2 walks over them.
func (a *Assembler) defineLabel(tok Token) {
	if a.pass != 1 {
		return
	}
	err := a.syms.Push(Symbol{
		Name:    tok.Text,
		Kind:    SymbolLabel,
		PC:      a.vpc,
		Pos:     tok.Pos,
		Defined: true,
	})
	if err != nil {
		a.report(tok.Pos, "duplicate label `%s`", tok.Text)
	}
}

// statement handles an identifier at statement position: an instruction
// mnemonic, or a bare reference to a label defined earlier in the
// source, which is emitted as a raw 8-byte immediate (a defined quirk
// of the object format). The earlier-definition requirement holds in
// both passes; without it pass 2 would emit a word pass 1 never
// counted, shifting every address after it.
func (a *Assembler) statement(tok Token) {
	if def, ok := bytecode.LookupMnemonic(tok.Text); ok {
		a.instruction(tok.Pos, def)
		return
	}

	if s := a.syms.Find(SymbolLabel, tok.Text); s != nil && s.Defined && s.Pos.Before(tok.Pos) {
		if a.pass == 2 {
			a.emit.Uint64(s.PC)
		}
		a.vpc += 8
		return
	}

	// Forward references at statement position are not a construct;
	// only operands may refer ahead. The diagnostic waits for pass 2,
	// but both passes skip the line so they walk the same bytes.
	if a.pass == 2 {
		a.report(tok.Pos, "unknown instruction `%s` in program", tok.Text)
	}
	a.lex.ConsumeUntilNewline()
}

// instruction assembles one instruction: opcode byte, descriptor byte,
// then the operands. Operand types come from lookahead so that the
// descriptor can be written before the operands are consumed.
func (a *Assembler) instruction(pos Position, def bytecode.InstDef) {
	var types [2]bytecode.OperandType
	for i := 0; i < def.Operands; i++ {
		switch t := a.lex.Peek(i + 1); t.Type {
		case TokenRegister:
			types[i] = bytecode.OperandRegister
		case TokenInt, TokenIdent:
			types[i] = bytecode.OperandImmediate
		}
	}

	if a.pass == 2 {
		if a.dbg != nil {
			a.dbg.Add(a.vpc, pos.Line, pos.Column)
		}
		a.emit.Byte(byte(def.Opcode))
		a.emit.Byte(bytecode.PackDescriptor(types[0], types[1]))
	}
	a.vpc += 2

	for i := 0; i < def.Operands; i++ {
		a.operand(a.lex.Next(), types[i])
	}
}

// operand emits a single operand. Identifier immediates resolve to the
// referenced label's address; an unresolved identifier in pass 2 is an
// error, and a zero placeholder keeps byte offsets stable.
func (a *Assembler) operand(tok Token, typ bytecode.OperandType) {
	switch typ {
	case bytecode.OperandRegister:
		if a.pass == 2 {
			a.emit.Byte(byte(tok.Value) & bytecode.RegisterMask)
		}
		a.vpc++

	case bytecode.OperandImmediate:
		val := uint64(tok.Value)
		if tok.Type == TokenIdent {
			if s := a.syms.Find(SymbolLabel, tok.Text); s != nil && s.Defined {
				val = s.PC
			} else if a.pass == 2 {
				a.report(tok.Pos, "identifier `%s` not defined", tok.Text)
				val = 0
			} else {
				val = 0
			}
		}
		if a.pass == 2 {
			a.emit.Uint64(val)
		}
		a.vpc += 8
	}
}

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

// lexError is the lexer's error handler. Lexical diagnostics are
// reported in pass 1 only, but recovery (skipping the rest of the line)
// must happen in both passes so the two walks stay identical.
func (a *Assembler) lexError(pos Position, format string, args ...interface{}) {
	if a.pass <= 1 {
		a.report(pos, format, args...)
	}
	a.lex.ConsumeUntilNewline()
}

func (a *Assembler) report(pos Position, format string, args ...interface{}) {
	a.errors++
	msg := fmt.Sprintf(format, args...)
	if a.Color {
		fmt.Fprintf(a.Diag, "\x1b[1m%s:%d:%d: \x1b[31merror\x1b[0m: %s\n", a.path, pos.Line, pos.Column, msg)
	} else {
		fmt.Fprintf(a.Diag, "%s:%d:%d: error: %s\n", a.path, pos.Line, pos.Column, msg)
	}
}

// reportNoPos is for errors with no source position: link errors and
// I/O errors.
func (a *Assembler) reportNoPos(format string, args ...interface{}) {
	a.errors++
	msg := fmt.Sprintf(format, args...)
	if a.Color {
		fmt.Fprintf(a.Diag, "\x1b[1m%s: \x1b[31merror\x1b[0m: %s\n", a.path, msg)
	} else {
		fmt.Fprintf(a.Diag, "%s: error: %s\n", a.path, msg)
	}
}

// ---------------------------------------------------------------------------
// Output finalization
// ---------------------------------------------------------------------------

// WriteObject writes a finished object to out through a temporary file
// in the same directory, renamed into place on success so a partially
// written object is never observable. The finished object is marked
// executable; this is cosmetic, the runner does not require it.
func WriteObject(out string, obj []byte) error {
	dir := filepath.Dir(out)
	tmp, err := os.CreateTemp(dir, ".posm-*.pob.tmp")
	if err != nil {
		return fmt.Errorf("create temporary output: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(obj); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, out); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("move to `%s`: %w", out, err)
	}
	if err := os.Chmod(out, 0o777); err != nil {
		return fmt.Errorf("chmod %s: %w", out, err)
	}
	return nil
}
