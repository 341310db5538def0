package output

import "github.com/antibyte/minilang/pkg/lexer"

// TokenJSON is the wire form of a token.
type TokenJSON struct {
	Kind     string `json:"kind"`
	Lexeme   string `json:"lexeme"`
	Line     int    `json:"line"`
	ColStart int    `json:"colStart"`
	ColEnd   int    `json:"colEnd"`
}

// ErrorJSON is the wire form of a lexical error.
type ErrorJSON struct {
	Kind    string `json:"kind"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// Result is a complete scan reply.
type Result struct {
	RunID   string        `json:"runId,omitempty"`
	Name    string        `json:"name,omitempty"`
	Tokens  []TokenJSON   `json:"tokens"`
	Errors  []ErrorJSON   `json:"errors"`
	Display []string      `json:"display"`
	Report  []string      `json:"report"`
	Summary lexer.Summary `json:"summary"`
}

// NewResult converts a scan result into its wire form.
func NewResult(name string, tokens []lexer.Token, errs []lexer.LexError) Result {
	res := Result{
		Name:    name,
		Tokens:  make([]TokenJSON, len(tokens)),
		Errors:  make([]ErrorJSON, len(errs)),
		Display: FormatTokens(tokens),
		Report:  FormatErrors(errs),
		Summary: lexer.Summarize(tokens, errs),
	}
	for i, tok := range tokens {
		res.Tokens[i] = TokenJSON{
			Kind:     tok.Kind.String(),
			Lexeme:   tok.Lexeme,
			Line:     tok.Line,
			ColStart: tok.ColStart,
			ColEnd:   tok.ColEnd,
		}
	}
	for i, e := range errs {
		res.Errors[i] = ErrorJSON{
			Kind:    e.Kind.String(),
			Line:    e.Line,
			Col:     e.Col,
			Message: e.Message,
		}
	}
	return res
}
