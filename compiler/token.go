package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Tokens for Pocol assembly
// ---------------------------------------------------------------------------

// TokenType classifies a lexed token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIllegal
	TokenInt      // 42, -7
	TokenLabel    // identifier immediately followed by ':'
	TokenIdent    // mnemonic or label reference
	TokenRegister // r0 - r7
)

var tokenNames = map[TokenType]string{
	TokenEOF:      "EOF",
	TokenIllegal:  "ILLEGAL",
	TokenInt:      "INT",
	TokenLabel:    "LABEL",
	TokenIdent:    "IDENT",
	TokenRegister: "REGISTER",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", int(t))
}

// Position is a line/column location in assembly source (1-based).
type Position struct {
	Line   int
	Column int
}

// Before reports whether p precedes q in source order.
func (p Position) Before(q Position) bool {
	return p.Line < q.Line || p.Line == q.Line && p.Column < q.Column
}

// Token is one lexical unit of assembly source.
type Token struct {
	Type  TokenType
	Text  string // raw source text; for labels, without the trailing ':'
	Value int64  // integer value for TokenInt, register index for TokenRegister
	Pos   Position
}
