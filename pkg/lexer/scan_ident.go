package lexer

// scanIdentifier consumes [A-Za-z_][A-Za-z0-9_]* and classifies it.
// Overlong identifiers are truncated; the cursor still moves past the full run.
func (s *Scanner) scanIdentifier() {
	line, col := s.line, s.column
	start := s.offset
	for !s.atEnd() && isIdentPart(s.peek()) {
		s.advance()
	}

	lexeme := s.source[start:s.offset]
	if len(lexeme) > MaxIdentifierLength {
		s.report(IdentifierTooLong, line, col, msgIdentifierTooLong)
		lexeme = lexeme[:MaxIdentifierLength]
	}

	s.emit(LookupKeyword(lexeme), lexeme, line, col, s.column-1)
}
