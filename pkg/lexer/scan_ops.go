package lexer

var twoCharOperators = map[string]Kind{
	">=": KindGE,
	"<=": KindLE,
	"==": KindEQ,
	"!=": KindNE,
}

var oneCharOperators = map[byte]Kind{
	'+': KindPlus,
	'-': KindMinus,
	'*': KindStar,
	'/': KindSlash,
	'%': KindPercent,
	'>': KindGT,
	'<': KindLT,
	'=': KindAssign,
	'(': KindLParen,
	')': KindRParen,
	'{': KindLBrace,
	'}': KindRBrace,
	':': KindColon,
	',': KindComma,
	';': KindSemicolon,
}

// scanOperator matches a two-character operator first, then a single
// character symbol. It reports false without consuming anything otherwise.
func (s *Scanner) scanOperator() bool {
	line, col := s.line, s.column

	if s.offset+2 <= len(s.source) {
		pair := s.source[s.offset : s.offset+2]
		if kind, ok := twoCharOperators[pair]; ok {
			s.advance()
			s.advance()
			s.emit(kind, pair, line, col, col+1)
			return true
		}
	}

	ch := s.peek()
	if kind, ok := oneCharOperators[ch]; ok {
		s.advance()
		s.emit(kind, string(ch), line, col, col)
		return true
	}
	return false
}
