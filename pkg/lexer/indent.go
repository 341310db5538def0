package lexer

// lineStartContext handles the first characters of a line. It returns true
// when it consumed input and the main loop should dispatch again.
func (s *Scanner) lineStartContext() bool {
	switch s.peek() {
	case '\n':
		// Blank line: no tokens, indentation untouched.
		s.advance()
		return true
	case '#':
		// Whole-line comment. The newline is left for the blank-line case.
		s.skipComment()
		return true
	case ' ', '\t':
		width := s.measureIndent()
		if next := s.peek(); next != '\n' && next != '#' && !s.atEnd() {
			s.resolveIndent(width)
			s.lineStart = false
		}
		return true
	}

	s.resolveIndent(0)
	s.lineStart = false
	return false
}

// measureIndent consumes leading blanks and returns their width.
func (s *Scanner) measureIndent() int {
	width := 0
	for !s.atEnd() {
		switch s.peek() {
		case ' ':
			width++
		case '\t':
			width += TabWidth
		default:
			return width
		}
		s.advance()
	}
	return width
}

// resolveIndent compares width against the innermost open level and emits
// INDENT or DEDENT tokens. A dedent that lands between two open levels stays
// at the enclosing one and is reported.
func (s *Scanner) resolveIndent(width int) {
	top := s.indents[len(s.indents)-1]

	switch {
	case width > top:
		s.indents = append(s.indents, width)
		s.emit(KindIndent, "", s.line, 1, width)

	case width < top:
		for width < s.indents[len(s.indents)-1] {
			s.indents = s.indents[:len(s.indents)-1]
			s.emit(KindDedent, "", s.line, 1, max(width, 1))
			if len(s.indents) == 0 {
				s.indents = append(s.indents, 0)
				break
			}
		}
		if s.indents[len(s.indents)-1] != width {
			s.report(InvalidIndentation, s.line, 1, msgInvalidIndentation)
		}
	}
}

// closeBlocks emits one DEDENT per level still open at end of input.
func (s *Scanner) closeBlocks() {
	for len(s.indents) > 1 {
		s.indents = s.indents[:len(s.indents)-1]
		s.emit(KindDedent, "", s.line, s.column, s.column)
	}
}

// Depth returns the number of open indentation levels above the sentinel.
func (s *Scanner) Depth() int {
	return len(s.indents) - 1
}
