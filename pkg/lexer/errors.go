package lexer

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a lexical error. Every kind is recoverable.
type ErrorKind uint8

const (
	UnexpectedCharacter ErrorKind = iota
	IdentifierTooLong
	MalformedFloatLiteral
	UnterminatedString
	InvalidIndentation
)

// Sentinel errors, one per ErrorKind, for use with errors.Is.
var (
	ErrUnexpectedCharacter   = errors.New("unexpected character")
	ErrIdentifierTooLong     = errors.New("identifier too long")
	ErrMalformedFloatLiteral = errors.New("malformed floating literal")
	ErrUnterminatedString    = errors.New("unterminated string literal")
	ErrInvalidIndentation    = errors.New("invalid indentation")
)

var errorKindNames = map[ErrorKind]string{
	UnexpectedCharacter:   "UnexpectedCharacter",
	IdentifierTooLong:     "IdentifierTooLong",
	MalformedFloatLiteral: "MalformedFloatLiteral",
	UnterminatedString:    "UnterminatedString",
	InvalidIndentation:    "InvalidIndentation",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// Sentinel returns the package-level error value matching k.
func (k ErrorKind) Sentinel() error {
	switch k {
	case UnexpectedCharacter:
		return ErrUnexpectedCharacter
	case IdentifierTooLong:
		return ErrIdentifierTooLong
	case MalformedFloatLiteral:
		return ErrMalformedFloatLiteral
	case UnterminatedString:
		return ErrUnterminatedString
	case InvalidIndentation:
		return ErrInvalidIndentation
	}
	return nil
}

// Diagnostic messages.
const (
	msgIdentifierTooLong  = "identifier exceeds 31 characters"
	msgMalformedFloat     = "malformed floating literal: digit expected after decimal point"
	msgUnterminatedString = "unterminated string literal"
	msgInvalidIndentation = "indentation does not match any enclosing level"
)

// LexError is a positioned lexical diagnostic.
type LexError struct {
	Kind    ErrorKind
	Line    int
	Col     int
	Message string
}

// Error renders the diagnostic as `line L, col C: ERROR message`.
func (e LexError) Error() string {
	return fmt.Sprintf("line %d, col %d: ERROR %s", e.Line, e.Col, e.Message)
}

// Unwrap exposes the kind's sentinel error.
func (e LexError) Unwrap() error {
	return e.Kind.Sentinel()
}

// Pos returns where the error was detected.
func (e LexError) Pos() Position {
	return Position{Line: e.Line, Col: e.Col}
}
