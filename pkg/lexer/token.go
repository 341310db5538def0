// Package lexer implements the MiniLang lexical analyzer.
//
// A Scanner turns one source string into an ordered token sequence and an
// ordered list of lexical errors. Block structure is derived from leading
// whitespace and reported as INDENT and DEDENT tokens; braces remain ordinary
// symbols. Scanning never stops on an error.
package lexer

import "fmt"

// Kind identifies the class of a token.
type Kind uint8

const (
	// Keywords
	KindIf Kind = iota
	KindElse
	KindWhile
	KindInt
	KindFloat
	KindString
	KindBool
	KindVoid
	KindReturn
	KindDef
	KindRead
	KindWrite

	// Literals and identifiers
	KindIdentifier
	KindIntegerLiteral
	KindFloatLiteral
	KindStringLiteral
	KindBooleanLiteral

	// Operators
	KindPlus
	KindMinus
	KindStar
	KindSlash
	KindPercent
	KindGT
	KindLT
	KindGE
	KindLE
	KindEQ
	KindNE
	KindAssign

	// Punctuation
	KindLParen
	KindRParen
	KindLBrace
	KindRBrace
	KindColon
	KindComma
	KindSemicolon

	// Structural
	KindNewline
	KindIndent
	KindDedent

	kindCount
)

var kindNames = [kindCount]string{
	KindIf:             "IF",
	KindElse:           "ELSE",
	KindWhile:          "WHILE",
	KindInt:            "INT",
	KindFloat:          "FLOAT",
	KindString:         "STRING",
	KindBool:           "BOOL",
	KindVoid:           "VOID",
	KindReturn:         "RETURN",
	KindDef:            "DEF",
	KindRead:           "READ",
	KindWrite:          "WRITE",
	KindIdentifier:     "IDENTIFIER",
	KindIntegerLiteral: "INTEGER_LITERAL",
	KindFloatLiteral:   "FLOAT_LITERAL",
	KindStringLiteral:  "STRING_LITERAL",
	KindBooleanLiteral: "BOOLEAN_LITERAL",
	KindPlus:           "PLUS",
	KindMinus:          "MINUS",
	KindStar:           "STAR",
	KindSlash:          "SLASH",
	KindPercent:        "PERCENT",
	KindGT:             "GT",
	KindLT:             "LT",
	KindGE:             "GE",
	KindLE:             "LE",
	KindEQ:             "EQ",
	KindNE:             "NE",
	KindAssign:         "ASSIGN",
	KindLParen:         "LPAREN",
	KindRParen:         "RPAREN",
	KindLBrace:         "LBRACE",
	KindRBrace:         "RBRACE",
	KindColon:          "COLON",
	KindComma:          "COMMA",
	KindSemicolon:      "SEMICOLON",
	KindNewline:        "NEWLINE",
	KindIndent:         "INDENT",
	KindDedent:         "DEDENT",
}

// String returns the upper-case kind name used in the token display form.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Kinds returns every token kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// IsKeyword reports whether k is a reserved word kind.
func (k Kind) IsKeyword() bool { return k <= KindWrite }

// IsLiteral reports whether k is an identifier or literal kind.
func (k Kind) IsLiteral() bool { return k >= KindIdentifier && k <= KindBooleanLiteral }

// IsStructural reports whether k is NEWLINE, INDENT or DEDENT.
func (k Kind) IsStructural() bool { return k >= KindNewline && k < kindCount }

// Position is a 1-based line/column location in normalized source.
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, col %d", p.Line, p.Col)
}

// Token is one classified lexeme. ColStart and ColEnd are both inclusive.
// Lexeme is empty for structural tokens.
type Token struct {
	Kind     Kind
	Lexeme   string
	Line     int
	ColStart int
	ColEnd   int
}

// Pos returns the position of the token's first column.
func (t Token) Pos() Position {
	return Position{Line: t.Line, Col: t.ColStart}
}

// String renders the token as `<KIND> line L, col S-E: 'lexeme'`.
// Structural tokens omit the lexeme segment.
func (t Token) String() string {
	if t.Kind.IsStructural() {
		return fmt.Sprintf("<%s> line %d, col %d-%d", t.Kind, t.Line, t.ColStart, t.ColEnd)
	}
	return fmt.Sprintf("<%s> line %d, col %d-%d: '%s'", t.Kind, t.Line, t.ColStart, t.ColEnd, t.Lexeme)
}

// keywords is case-sensitive: Read and Write are capitalized in MiniLang.
var keywords = map[string]Kind{
	"if":     KindIf,
	"else":   KindElse,
	"while":  KindWhile,
	"int":    KindInt,
	"float":  KindFloat,
	"string": KindString,
	"bool":   KindBool,
	"void":   KindVoid,
	"return": KindReturn,
	"def":    KindDef,
	"Read":   KindRead,
	"Write":  KindWrite,
	"true":   KindBooleanLiteral,
	"false":  KindBooleanLiteral,
}

// LookupKeyword classifies an identifier lexeme. Lexemes that are not
// reserved words yield KindIdentifier.
func LookupKeyword(lexeme string) Kind {
	if kind, ok := keywords[lexeme]; ok {
		return kind
	}
	return KindIdentifier
}
