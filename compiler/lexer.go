package compiler

import "strconv"

// ---------------------------------------------------------------------------
// Lexer: tokenizer for Pocol assembly
// ---------------------------------------------------------------------------

// ErrorHandler receives lexical diagnostics. The lexer itself never
// stops on an error; it reports and keeps scanning.
type ErrorHandler func(pos Position, format string, args ...interface{})

// Lexer tokenizes assembly source. Whitespace and commas are liberal
// separators, and ';' starts a comment running to end of line.
type Lexer struct {
	src  string
	pos  int
	line int // current line (1-based)
	col  int // current column (1-based)
	errh ErrorHandler
}

// NewLexer creates a lexer for the given source. errh may be nil.
func NewLexer(src string, errh ErrorHandler) *Lexer {
	return &Lexer{src: src, line: 1, col: 1, errh: errh}
}

// Reset rewinds the lexer to the start of the source. The assembler
// calls this between pass 1 and pass 2.
func (l *Lexer) Reset() {
	l.pos = 0
	l.line = 1
	l.col = 1
}

// Pos returns the current cursor position.
func (l *Lexer) Pos() Position {
	return Position{Line: l.line, Column: l.col}
}

// consume moves the cursor one byte forward, tracking line and column.
func (l *Lexer) consume() {
	if l.pos >= len(l.src) {
		return
	}
	if l.src[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

// ConsumeUntilNewline advances the cursor to the next newline. Used for
// error recovery: one line, one diagnostic.
func (l *Lexer) ConsumeUntilNewline() {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.consume()
	}
}

func (l *Lexer) report(pos Position, format string, args ...interface{}) {
	if l.errh != nil {
		l.errh(pos, format, args...)
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f'
}

// skipSeparators skips whitespace, commas and comments.
func (l *Lexer) skipSeparators() {
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		if isSpace(ch) || ch == ',' {
			l.consume()
		} else if ch == ';' {
			l.ConsumeUntilNewline()
		} else {
			break
		}
	}
}

// Next returns the next token, advancing the cursor past it.
func (l *Lexer) Next() Token {
	l.skipSeparators()

	pos := l.Pos()
	if l.pos >= len(l.src) {
		return Token{Type: TokenEOF, Pos: pos}
	}

	ch := l.src[l.pos]
	if isDigit(ch) || (ch == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])) {
		return l.lexInt(pos)
	}
	if isIdentStart(ch) {
		return l.lexIdent(pos)
	}

	l.consume()
	l.report(pos, "illegal character %q in program", rune(ch))
	return Token{Type: TokenIllegal, Text: string(ch), Pos: pos}
}

// Peek returns the n-th following token (n=1 is the token Next would
// return) without moving the cursor. Diagnostics are suppressed while
// peeking; the real Next reports them exactly once.
func (l *Lexer) Peek(n int) Token {
	savedPos, savedLine, savedCol := l.pos, l.line, l.col
	savedErrh := l.errh
	l.errh = nil

	var t Token
	for i := 0; i < n; i++ {
		t = l.Next()
	}

	l.pos, l.line, l.col = savedPos, savedLine, savedCol
	l.errh = savedErrh
	return t
}

// lexInt scans a base-10 integer with an optional leading minus.
func (l *Lexer) lexInt(pos Position) Token {
	start := l.pos
	if l.src[l.pos] == '-' {
		l.consume()
	}
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.consume()
	}
	text := l.src[start:l.pos]

	val, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		// ParseInt clamps on range errors; keep the clamped value so
		// emission stays well-defined after the diagnostic.
		l.report(pos, "integer out of range")
	}
	return Token{Type: TokenInt, Text: text, Value: val, Pos: pos}
}

// lexIdent scans an identifier run and classifies it as a label
// definition, a register, or a plain identifier.
func (l *Lexer) lexIdent(pos Position) Token {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.consume()
	}
	text := l.src[start:l.pos]

	// name: defines a label; the colon is consumed with it.
	if l.pos < len(l.src) && l.src[l.pos] == ':' {
		l.consume()
		return Token{Type: TokenLabel, Text: text, Pos: pos}
	}

	// r<digit>... is a register; a bare "r" or r<letter>... is an
	// ordinary identifier.
	if text[0] == 'r' && len(text) > 1 && isDigit(text[1]) {
		digits := 1
		for digits < len(text) && isDigit(text[digits]) {
			digits++
		}
		// ParseInt clamps on overflow; register bytes are masked at
		// emission, so the clamped value serves.
		idx, _ := strconv.ParseInt(text[1:digits], 10, 64)
		return Token{Type: TokenRegister, Text: text, Value: idx, Pos: pos}
	}

	return Token{Type: TokenIdent, Text: text, Pos: pos}
}
