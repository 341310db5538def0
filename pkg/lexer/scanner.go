package lexer

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/antibyte/minilang/pkg/logger"
)

const (
	// MaxIdentifierLength is the longest identifier kept verbatim.
	MaxIdentifierLength = 31
	// TabWidth is the indentation width of one tab character.
	TabWidth = 4
)

// Scanner performs lexical analysis on one MiniLang source string.
// A Scanner is used once: Analyze consumes its state.
type Scanner struct {
	source string
	offset int
	line   int
	column int

	indents   []int
	lineStart bool

	tokens []Token
	errs   []LexError
	done   bool
}

// NewScanner creates a scanner for source. CRLF line endings are normalized
// to LF and a final newline is always appended.
func NewScanner(source string) *Scanner {
	return &Scanner{
		source:    strings.ReplaceAll(source, "\r\n", "\n") + "\n",
		line:      1,
		column:    1,
		indents:   []int{0},
		lineStart: true,
	}
}

// Analyze scans the whole source and returns the tokens and lexical errors in
// source order. Calling it again returns copies of the first result.
func (s *Scanner) Analyze() ([]Token, []LexError) {
	if !s.done {
		s.run()
		s.done = true
		logger.Debug(logger.AreaLexer, "scan finished: %d tokens, %d errors, %d lines",
			len(s.tokens), len(s.errs), s.line-1)
	}
	tokens := make([]Token, len(s.tokens))
	copy(tokens, s.tokens)
	errs := make([]LexError, len(s.errs))
	copy(errs, s.errs)
	return tokens, errs
}

// Analyze is shorthand for NewScanner(source).Analyze().
func Analyze(source string) ([]Token, []LexError) {
	return NewScanner(source).Analyze()
}

func (s *Scanner) run() {
	for !s.atEnd() {
		if s.lineStart && s.lineStartContext() {
			continue
		}

		ch := s.peek()
		switch {
		case ch == ' ' || ch == '\t':
			s.advance()
		case ch == '\n':
			s.emit(KindNewline, "", s.line, s.column, s.column)
			s.advance()
			s.lineStart = true
		case ch == '#':
			s.skipComment()
		case isIdentStart(ch):
			s.scanIdentifier()
		case isDigit(ch):
			s.scanNumber()
		case ch == '"':
			s.scanString()
		default:
			if !s.scanOperator() {
				s.unexpectedCharacter()
			}
		}
	}

	s.closeBlocks()
}

func (s *Scanner) unexpectedCharacter() {
	r, _ := utf8.DecodeRuneInString(s.source[s.offset:])
	s.report(UnexpectedCharacter, s.line, s.column, "unexpected character "+strconv.QuoteRune(r))
	s.advance()
}

func (s *Scanner) skipComment() {
	for !s.atEnd() && s.peek() != '\n' {
		s.advance()
	}
}

func (s *Scanner) emit(kind Kind, lexeme string, line, colStart, colEnd int) {
	s.tokens = append(s.tokens, Token{
		Kind:     kind,
		Lexeme:   lexeme,
		Line:     line,
		ColStart: colStart,
		ColEnd:   colEnd,
	})
}

func (s *Scanner) report(kind ErrorKind, line, col int, message string) {
	logger.Debug(logger.AreaLexer, "line %d, col %d: %s", line, col, message)
	s.errs = append(s.errs, LexError{Kind: kind, Line: line, Col: col, Message: message})
}

func (s *Scanner) atEnd() bool {
	return s.offset >= len(s.source)
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.offset]
}

// advance consumes one character. Columns count characters, not bytes.
func (s *Scanner) advance() {
	if s.atEnd() {
		return
	}
	ch := s.source[s.offset]
	if ch < utf8.RuneSelf {
		s.offset++
	} else {
		_, size := utf8.DecodeRuneInString(s.source[s.offset:])
		s.offset += size
	}
	if ch == '\n' {
		s.line++
		s.column = 1
		return
	}
	s.column++
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentStart(ch byte) bool {
	return isLetter(ch) || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_'
}
