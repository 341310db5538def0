package lexer

// scanString consumes a double-quoted literal on a single line. A literal
// cut off by a newline is reported and emitted with a closing quote added.
func (s *Scanner) scanString() {
	line, col := s.line, s.column
	s.advance() // opening quote

	start := s.offset
	for !s.atEnd() && s.peek() != '"' && s.peek() != '\n' {
		s.advance()
	}
	content := s.source[start:s.offset]

	if s.atEnd() || s.peek() == '\n' {
		s.report(UnterminatedString, line, col, msgUnterminatedString)
		s.emit(KindStringLiteral, `"`+content+`"`, line, col, s.column-1)
		return
	}

	s.advance() // closing quote
	s.emit(KindStringLiteral, `"`+content+`"`, line, col, s.column-1)
}
