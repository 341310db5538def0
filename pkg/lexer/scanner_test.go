package lexer

import (
	"errors"
	"testing"
)

func kindsOf(tokens []Token) []Kind {
	kinds := make([]Kind, len(tokens))
	for i, tok := range tokens {
		kinds[i] = tok.Kind
	}
	return kinds
}

func assertKinds(t *testing.T, tokens []Token, expected []Kind) {
	t.Helper()
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), kindsOf(tokens))
	}
	for i, exp := range expected {
		if tokens[i].Kind != exp {
			t.Errorf("token %d: expected kind %v, got %v", i, exp, tokens[i].Kind)
		}
	}
}

func TestAssignmentStatement(t *testing.T) {
	tokens, errs := Analyze("x = 5\n")
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}

	expected := []Token{
		{Kind: KindIdentifier, Lexeme: "x", Line: 1, ColStart: 1, ColEnd: 1},
		{Kind: KindAssign, Lexeme: "=", Line: 1, ColStart: 3, ColEnd: 3},
		{Kind: KindIntegerLiteral, Lexeme: "5", Line: 1, ColStart: 5, ColEnd: 5},
		{Kind: KindNewline, Line: 1, ColStart: 6, ColEnd: 6},
	}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, exp := range expected {
		if tokens[i] != exp {
			t.Errorf("token %d: expected %+v, got %+v", i, exp, tokens[i])
		}
	}
}

func TestIfBlock(t *testing.T) {
	tokens, errs := Analyze("if x > 3:\n    y = 1\n")
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}

	assertKinds(t, tokens, []Kind{
		KindIf, KindIdentifier, KindGT, KindIntegerLiteral, KindColon, KindNewline,
		KindIndent, KindIdentifier, KindAssign, KindIntegerLiteral, KindNewline,
		KindDedent,
	})

	indent := tokens[6]
	if indent.Line != 2 || indent.ColStart != 1 || indent.ColEnd != 4 || indent.Lexeme != "" {
		t.Errorf("unexpected INDENT token: %+v", indent)
	}
	if y := tokens[7]; y.Lexeme != "y" || y.ColStart != 5 {
		t.Errorf("expected 'y' at col 5, got %+v", y)
	}
	if kw := tokens[0]; kw.Lexeme != "if" || kw.ColStart != 1 || kw.ColEnd != 2 {
		t.Errorf("unexpected IF token: %+v", kw)
	}
}

func TestUnterminatedString(t *testing.T) {
	tokens, errs := Analyze("\"abc\n")

	assertKinds(t, tokens, []Kind{KindStringLiteral, KindNewline})
	str := tokens[0]
	if str.Lexeme != `"abc"` {
		t.Errorf("expected synthetically closed lexeme %q, got %q", `"abc"`, str.Lexeme)
	}
	if str.ColStart != 1 || str.ColEnd != 4 {
		t.Errorf("expected columns 1-4, got %d-%d", str.ColStart, str.ColEnd)
	}

	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	if errs[0].Kind != UnterminatedString || errs[0].Line != 1 || errs[0].Col != 1 {
		t.Errorf("unexpected error: %+v", errs[0])
	}
}

func TestStringLiteral(t *testing.T) {
	tokens, errs := Analyze(`s = "hi there"`)
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	assertKinds(t, tokens, []Kind{KindIdentifier, KindAssign, KindStringLiteral, KindNewline})

	str := tokens[2]
	if str.Lexeme != `"hi there"` || str.ColStart != 5 || str.ColEnd != 14 {
		t.Errorf("unexpected string token: %+v", str)
	}
}

func TestStringDoesNotSpanLines(t *testing.T) {
	tokens, errs := Analyze("a = \"open\nb = 1\n")
	if len(errs) != 1 || errs[0].Kind != UnterminatedString {
		t.Fatalf("expected one unterminated string error, got %v", errs)
	}
	assertKinds(t, tokens, []Kind{
		KindIdentifier, KindAssign, KindStringLiteral, KindNewline,
		KindIdentifier, KindAssign, KindIntegerLiteral, KindNewline,
	})
	if tokens[4].Line != 2 {
		t.Errorf("expected 'b' on line 2, got line %d", tokens[4].Line)
	}
}

func TestDedentToSentinel(t *testing.T) {
	tokens, errs := Analyze("   x = 1\ny = 2\n")
	for _, e := range errs {
		if e.Kind == InvalidIndentation {
			t.Errorf("unexpected indentation error: %v", e)
		}
	}

	assertKinds(t, tokens, []Kind{
		KindIndent, KindIdentifier, KindAssign, KindIntegerLiteral, KindNewline,
		KindDedent, KindIdentifier, KindAssign, KindIntegerLiteral, KindNewline,
	})
	if tokens[0].ColEnd != 3 {
		t.Errorf("expected INDENT to span columns 1-3, got %d-%d", tokens[0].ColStart, tokens[0].ColEnd)
	}
	if tokens[5].Line != 2 {
		t.Errorf("expected DEDENT on line 2, got %d", tokens[5].Line)
	}
}

func TestMalformedFloat(t *testing.T) {
	tokens, errs := Analyze("1.x")

	assertKinds(t, tokens, []Kind{KindFloatLiteral, KindIdentifier, KindNewline})
	if tokens[0].Lexeme != "1." || tokens[0].ColStart != 1 || tokens[0].ColEnd != 2 {
		t.Errorf("unexpected float token: %+v", tokens[0])
	}

	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	e := errs[0]
	if e.Kind != MalformedFloatLiteral || e.Line != 1 || e.Col != 3 {
		t.Errorf("unexpected error: %+v", e)
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		kind   Kind
		lexeme string
		errors int
	}{
		{"integer", "42", KindIntegerLiteral, "42", 0},
		{"float", "3.14", KindFloatLiteral, "3.14", 0},
		{"trailing dot", "7.", KindFloatLiteral, "7.", 1},
		{"leading zeros", "007", KindIntegerLiteral, "007", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, errs := Analyze(tt.src)
			if len(tokens) == 0 {
				t.Fatal("expected tokens")
			}
			if tokens[0].Kind != tt.kind || tokens[0].Lexeme != tt.lexeme {
				t.Errorf("expected %v %q, got %v %q", tt.kind, tt.lexeme, tokens[0].Kind, tokens[0].Lexeme)
			}
			if len(errs) != tt.errors {
				t.Errorf("expected %d errors, got %v", tt.errors, errs)
			}
		})
	}
}

func TestKeywordsAndBooleans(t *testing.T) {
	src := "if else while int float string bool void return def Read Write true false read"
	tokens, errs := Analyze(src)
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	assertKinds(t, tokens, []Kind{
		KindIf, KindElse, KindWhile, KindInt, KindFloat, KindString, KindBool,
		KindVoid, KindReturn, KindDef, KindRead, KindWrite,
		KindBooleanLiteral, KindBooleanLiteral, KindIdentifier, KindNewline,
	})
}

func TestOperatorsAndPunctuation(t *testing.T) {
	tokens, errs := Analyze("+ - * / % > < >= <= == != = ( ) { } : , ;")
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	assertKinds(t, tokens, []Kind{
		KindPlus, KindMinus, KindStar, KindSlash, KindPercent, KindGT, KindLT,
		KindGE, KindLE, KindEQ, KindNE, KindAssign, KindLParen, KindRParen,
		KindLBrace, KindRBrace, KindColon, KindComma, KindSemicolon, KindNewline,
	})

	ge := tokens[7]
	if ge.Lexeme != ">=" || ge.ColStart != 15 || ge.ColEnd != 16 {
		t.Errorf("unexpected >= token: %+v", ge)
	}
	if plus := tokens[0]; plus.ColStart != plus.ColEnd {
		t.Errorf("single character token should have equal columns: %+v", plus)
	}
}

func TestGreedyTwoCharacterOperators(t *testing.T) {
	tokens, _ := Analyze("a===b")
	assertKinds(t, tokens, []Kind{KindIdentifier, KindEQ, KindAssign, KindIdentifier, KindNewline})
}

func TestUnexpectedCharacter(t *testing.T) {
	tokens, errs := Analyze("x = @ ! 1\n")

	assertKinds(t, tokens, []Kind{KindIdentifier, KindAssign, KindIntegerLiteral, KindNewline})
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if errs[0].Col != 5 || errs[0].Message != "unexpected character '@'" {
		t.Errorf("unexpected first error: %+v", errs[0])
	}
	if errs[1].Col != 7 || errs[1].Kind != UnexpectedCharacter {
		t.Errorf("unexpected second error: %+v", errs[1])
	}
	if tokens[2].ColStart != 9 {
		t.Errorf("expected literal at col 9 after recovery, got %d", tokens[2].ColStart)
	}
}

func TestNonASCIICountsOneColumn(t *testing.T) {
	tokens, errs := Analyze("é = 1")
	if len(errs) != 1 || errs[0].Col != 1 {
		t.Fatalf("expected one error at col 1, got %v", errs)
	}
	assertKinds(t, tokens, []Kind{KindAssign, KindIntegerLiteral, KindNewline})
	if tokens[0].ColStart != 3 {
		t.Errorf("expected '=' at col 3, got %d", tokens[0].ColStart)
	}
}

func TestIdentifierTruncation(t *testing.T) {
	long := "abcdefghijklmnopqrstuvwxyz_0123456789"
	tokens, errs := Analyze(long + " = 1")

	assertKinds(t, tokens, []Kind{KindIdentifier, KindAssign, KindIntegerLiteral, KindNewline})
	ident := tokens[0]
	if ident.Lexeme != long[:MaxIdentifierLength] {
		t.Errorf("expected truncated lexeme %q, got %q", long[:MaxIdentifierLength], ident.Lexeme)
	}
	if ident.ColStart != 1 || ident.ColEnd != len(long) {
		t.Errorf("expected columns 1-%d, got %d-%d", len(long), ident.ColStart, ident.ColEnd)
	}
	if tokens[1].ColStart != len(long)+2 {
		t.Errorf("expected '=' at col %d, got %d", len(long)+2, tokens[1].ColStart)
	}

	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got %v", errs)
	}
	if errs[0].Kind != IdentifierTooLong || errs[0].Col != 1 {
		t.Errorf("unexpected error: %+v", errs[0])
	}
}

func TestIdentifierAtLimitIsKept(t *testing.T) {
	ident := "a123456789012345678901234567890"
	if len(ident) != MaxIdentifierLength {
		t.Fatalf("fixture has length %d", len(ident))
	}
	tokens, errs := Analyze(ident)
	if len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
	if tokens[0].Lexeme != ident {
		t.Errorf("expected %q, got %q", ident, tokens[0].Lexeme)
	}
}

func TestEmptyAndBlankInput(t *testing.T) {
	for _, src := range []string{"", "\n", "\n\n\n", "   \n\t\n", "\r\n"} {
		tokens, errs := Analyze(src)
		if len(tokens) != 0 || len(errs) != 0 {
			t.Errorf("input %q: expected no output, got %v / %v", src, tokens, errs)
		}
	}
}

func TestMissingTrailingNewline(t *testing.T) {
	tokens, _ := Analyze("x")
	assertKinds(t, tokens, []Kind{KindIdentifier, KindNewline})
	if tokens[1].ColStart != 2 {
		t.Errorf("expected NEWLINE at col 2, got %d", tokens[1].ColStart)
	}
}

func TestCRLFNormalization(t *testing.T) {
	lf, lfErrs := Analyze("if a:\n    b = 1\nc = 2\n")
	crlf, crlfErrs := Analyze("if a:\r\n    b = 1\r\nc = 2\r\n")

	if len(lfErrs) != 0 || len(crlfErrs) != 0 {
		t.Fatalf("expected no errors, got %v / %v", lfErrs, crlfErrs)
	}
	if len(lf) != len(crlf) {
		t.Fatalf("token counts differ: %d vs %d", len(lf), len(crlf))
	}
	for i := range lf {
		if lf[i] != crlf[i] {
			t.Errorf("token %d differs: %+v vs %+v", i, lf[i], crlf[i])
		}
	}
}

func TestComments(t *testing.T) {
	tokens, errs := Analyze("# header\nx = 1 # trailing\n    # indented note\ny = 2\n")
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	assertKinds(t, tokens, []Kind{
		KindIdentifier, KindAssign, KindIntegerLiteral, KindNewline,
		KindIdentifier, KindAssign, KindIntegerLiteral, KindNewline,
	})
	if tokens[0].Line != 2 || tokens[4].Line != 4 {
		t.Errorf("unexpected lines: %d, %d", tokens[0].Line, tokens[4].Line)
	}
}

func TestErrorsMatchSentinels(t *testing.T) {
	_, errs := Analyze("1. \"x\n@")
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %v", errs)
	}

	sentinels := []error{ErrMalformedFloatLiteral, ErrUnterminatedString, ErrUnexpectedCharacter}
	for i, sentinel := range sentinels {
		var err error = errs[i]
		if !errors.Is(err, sentinel) {
			t.Errorf("error %d (%v) should match %v", i, err, sentinel)
		}
	}
}

func TestAnalyzeTwiceReturnsSameResult(t *testing.T) {
	s := NewScanner("if a:\n  b\n")
	first, firstErrs := s.Analyze()
	second, secondErrs := s.Analyze()

	if len(first) != len(second) || len(firstErrs) != len(secondErrs) {
		t.Fatalf("second Analyze returned different result sizes")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("token %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
	if s.Depth() != 0 {
		t.Errorf("expected all levels closed, depth %d", s.Depth())
	}
}

func TestTokenString(t *testing.T) {
	tests := []struct {
		tok      Token
		expected string
	}{
		{Token{Kind: KindIdentifier, Lexeme: "x", Line: 1, ColStart: 1, ColEnd: 1}, "<IDENTIFIER> line 1, col 1-1: 'x'"},
		{Token{Kind: KindGE, Lexeme: ">=", Line: 3, ColStart: 4, ColEnd: 5}, "<GE> line 3, col 4-5: '>='"},
		{Token{Kind: KindNewline, Line: 1, ColStart: 6, ColEnd: 6}, "<NEWLINE> line 1, col 6-6"},
		{Token{Kind: KindIndent, Line: 2, ColStart: 1, ColEnd: 4}, "<INDENT> line 2, col 1-4"},
	}
	for _, tt := range tests {
		if got := tt.tok.String(); got != tt.expected {
			t.Errorf("expected %q, got %q", tt.expected, got)
		}
	}
}

func TestLexErrorString(t *testing.T) {
	e := LexError{Kind: MalformedFloatLiteral, Line: 1, Col: 3, Message: msgMalformedFloat}
	expected := "line 1, col 3: ERROR malformed floating literal: digit expected after decimal point"
	if e.Error() != expected {
		t.Errorf("expected %q, got %q", expected, e.Error())
	}
	if e.Pos() != (Position{Line: 1, Col: 3}) {
		t.Errorf("unexpected position %v", e.Pos())
	}
}

func TestKindClassification(t *testing.T) {
	if !KindWrite.IsKeyword() || KindIdentifier.IsKeyword() {
		t.Error("keyword classification is wrong")
	}
	if !KindBooleanLiteral.IsLiteral() || KindPlus.IsLiteral() {
		t.Error("literal classification is wrong")
	}
	if !KindDedent.IsStructural() || KindSemicolon.IsStructural() {
		t.Error("structural classification is wrong")
	}
	if len(Kinds()) != int(kindCount) {
		t.Errorf("expected %d kinds, got %d", kindCount, len(Kinds()))
	}
	for _, k := range Kinds() {
		if k.String() == "" {
			t.Errorf("kind %d has no name", k)
		}
	}
}
