package lexer

// scanNumber consumes a digit run with an optional fractional part.
// A '.' makes the literal a float even when no digit follows it.
func (s *Scanner) scanNumber() {
	line, col := s.line, s.column
	start := s.offset
	kind := KindIntegerLiteral

	s.skipDigits()
	if s.peek() == '.' {
		kind = KindFloatLiteral
		s.advance()
		if !isDigit(s.peek()) {
			s.report(MalformedFloatLiteral, s.line, s.column, msgMalformedFloat)
		}
		s.skipDigits()
	}

	s.emit(kind, s.source[start:s.offset], line, col, s.column-1)
}

func (s *Scanner) skipDigits() {
	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}
}
