package lexer

// Summary aggregates counts over one scan result.
type Summary struct {
	Tokens   int            `json:"tokens"`
	Errors   int            `json:"errors"`
	Indents  int            `json:"indents"`
	Dedents  int            `json:"dedents"`
	Newlines int            `json:"newlines"`
	ByKind   map[string]int `json:"byKind"`
	ByError  map[string]int `json:"byError,omitempty"`
}

// Summarize counts tokens per kind and errors per error kind.
func Summarize(tokens []Token, errs []LexError) Summary {
	sum := Summary{
		Tokens: len(tokens),
		Errors: len(errs),
		ByKind: make(map[string]int),
	}
	for _, tok := range tokens {
		sum.ByKind[tok.Kind.String()]++
		switch tok.Kind {
		case KindIndent:
			sum.Indents++
		case KindDedent:
			sum.Dedents++
		case KindNewline:
			sum.Newlines++
		}
	}
	if len(errs) > 0 {
		sum.ByError = make(map[string]int)
		for _, e := range errs {
			sum.ByError[e.Kind.String()]++
		}
	}
	return sum
}

// Balanced reports whether every INDENT has a matching DEDENT.
func (s Summary) Balanced() bool {
	return s.Indents == s.Dedents
}
