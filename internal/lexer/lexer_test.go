package lexer

import (
	"strings"
	"testing"
)

func TestLexer_NextToken(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "No spaces",
			input: "12+34;",
			expected: []Token{
				{Lexeme: "12", Category: IntLiteral, Offset: 0, Line: 1},
				{Lexeme: "+", Category: AddOp, Offset: 2, Line: 1},
				{Lexeme: "34", Category: IntLiteral, Offset: 3, Line: 1},
				{Lexeme: ";", Category: SemiColon, Offset: 5, Line: 1},
			},
		},
		{
			name:  "Whitespace between tokens",
			input: "  7 /\t2 ;\n",
			expected: []Token{
				{Lexeme: "7", Category: IntLiteral, Offset: 2, Line: 1},
				{Lexeme: "/", Category: DivOp, Offset: 4, Line: 1},
				{Lexeme: "2", Category: IntLiteral, Offset: 6, Line: 1},
				{Lexeme: ";", Category: SemiColon, Offset: 8, Line: 1},
			},
		},
		{
			name:  "Carriage return is not whitespace",
			input: "1\r;",
			expected: []Token{
				{Lexeme: "1", Category: IntLiteral, Offset: 0, Line: 1},
				{Lexeme: "\r", Category: Invalid, Offset: 1, Line: 1},
				{Lexeme: ";", Category: SemiColon, Offset: 2, Line: 1},
			},
		},
		{
			name:  "Two character operators",
			input: "<= >= == !=",
			expected: []Token{
				{Lexeme: "<=", Category: LessThanOrEqualOp, Offset: 0, Line: 1},
				{Lexeme: ">=", Category: GreaterThanOrEqualOp, Offset: 3, Line: 1},
				{Lexeme: "==", Category: EqualsOp, Offset: 6, Line: 1},
				{Lexeme: "!=", Category: NotEqualsOp, Offset: 9, Line: 1},
			},
		},
		{
			name:  "Single character fallbacks",
			input: "< > = !",
			expected: []Token{
				{Lexeme: "<", Category: LessThanOp, Offset: 0, Line: 1},
				{Lexeme: ">", Category: GreaterThanOp, Offset: 2, Line: 1},
				{Lexeme: "=", Category: AssignOp, Offset: 4, Line: 1},
				{Lexeme: "!", Category: NotOp, Offset: 6, Line: 1},
			},
		},
		{
			name:  "Operator followed by non-equals",
			input: "<<=",
			expected: []Token{
				{Lexeme: "<", Category: LessThanOp, Offset: 0, Line: 1},
				{Lexeme: "<=", Category: LessThanOrEqualOp, Offset: 1, Line: 1},
			},
		},
		{
			name:  "Arithmetic and grouping",
			input: "(2-3)*4^2",
			expected: []Token{
				{Lexeme: "(", Category: LeftParen, Offset: 0, Line: 1},
				{Lexeme: "2", Category: IntLiteral, Offset: 1, Line: 1},
				{Lexeme: "-", Category: SubOp, Offset: 2, Line: 1},
				{Lexeme: "3", Category: IntLiteral, Offset: 3, Line: 1},
				{Lexeme: ")", Category: RightParen, Offset: 4, Line: 1},
				{Lexeme: "*", Category: MultOp, Offset: 5, Line: 1},
				{Lexeme: "4", Category: IntLiteral, Offset: 6, Line: 1},
				{Lexeme: "^", Category: ExponOp, Offset: 7, Line: 1},
				{Lexeme: "2", Category: IntLiteral, Offset: 8, Line: 1},
			},
		},
		{
			name:  "Invalid characters",
			input: "1 $ a;",
			expected: []Token{
				{Lexeme: "1", Category: IntLiteral, Offset: 0, Line: 1},
				{Lexeme: "$", Category: Invalid, Offset: 2, Line: 1},
				{Lexeme: "a", Category: Invalid, Offset: 4, Line: 1},
				{Lexeme: ";", Category: SemiColon, Offset: 5, Line: 1},
			},
		},
		{
			name:  "Newlines advance the line counter",
			input: "1\n+\n2",
			expected: []Token{
				{Lexeme: "1", Category: IntLiteral, Offset: 0, Line: 1},
				{Lexeme: "+", Category: AddOp, Offset: 2, Line: 2},
				{Lexeme: "2", Category: IntLiteral, Offset: 4, Line: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.input)
			for i, want := range tt.expected {
				got := l.NextToken()
				if got != want {
					t.Fatalf("token %d: got %+v, want %+v", i, got, want)
				}
			}
			if tok := l.NextToken(); tok.Category != EndOfLine {
				t.Errorf("expected END_OF_LINE, got %v", tok)
			}
		})
	}
}

func TestLexer_LessOrEqualIsOneToken(t *testing.T) {
	tokens := Tokenize("<=")
	if len(tokens) != 1 {
		t.Fatalf("expected 1 token, got %d: %v", len(tokens), tokens)
	}
	if tokens[0].Category != LessThanOrEqualOp {
		t.Errorf("expected LESS_THAN_OR_EQUAL_OP, got %v", tokens[0].Category)
	}
}

func TestLexer_GreedyIntLiteral(t *testing.T) {
	tokens := Tokenize("1234567890+0")
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(tokens))
	}
	if tokens[0].Lexeme != "1234567890" {
		t.Errorf("expected maximal digit run, got %q", tokens[0].Lexeme)
	}
}

func TestLexer_EndOfLineIsSticky(t *testing.T) {
	l := New("  ")
	for i := 0; i < 3; i++ {
		tok := l.NextToken()
		if tok.Category != EndOfLine {
			t.Fatalf("call %d: expected END_OF_LINE, got %v", i, tok)
		}
		if tok.Lexeme != "" {
			t.Errorf("END_OF_LINE must have an empty lexeme, got %q", tok.Lexeme)
		}
	}
	if l.Position() != 2 {
		t.Errorf("cursor should rest at end of line, got %d", l.Position())
	}
}

func TestLexer_Reset(t *testing.T) {
	l := New("1;")
	l.NextToken()
	l.NextToken()

	l.Reset("(")
	tok := l.NextToken()
	if tok.Category != LeftParen || tok.Offset != 0 {
		t.Errorf("expected LEFT_PAREN at offset 0 after reset, got %+v", tok)
	}
}

func TestLexer_LineCounter(t *testing.T) {
	l := New("1\n 2;")
	if l.Line() != 1 {
		t.Fatalf("fresh lexer should be on line 1, got %d", l.Line())
	}
	l.NextToken()
	tok := l.NextToken()
	if tok.Line != 2 || l.Line() != 2 {
		t.Errorf("newline should advance the counter, token %+v, lexer line %d", tok, l.Line())
	}

	l.SetLine(10)
	l.Reset("3;")
	if tok := l.NextToken(); tok.Line != 10 {
		t.Errorf("SetLine should carry across Reset, got line %d", tok.Line)
	}
}

func TestLexer_AtEnd(t *testing.T) {
	l := New("1 ;  \t")
	if l.AtEnd() {
		t.Fatal("fresh lexer should not be at end")
	}
	l.NextToken()
	l.NextToken()
	if !l.AtEnd() {
		t.Errorf("only whitespace remains, expected AtEnd, remaining %q", l.Remaining())
	}
}

// Every lexeme must be exactly the text the cursor moved over.
func TestLexer_RoundTrip(t *testing.T) {
	inputs := []string{
		"12+34;",
		"(1 + 2) * 3 <= 4 ^ 2 != 0;",
		"a=b==c!d!=e ;;",
		"   \t 99999   \n",
		"#@! >=> <<",
	}

	for _, input := range inputs {
		l := New(input)
		var rebuilt strings.Builder
		for {
			before := l.Position()
			tok := l.NextToken()
			if tok.Category == EndOfLine {
				break
			}
			if got := input[tok.Offset:tok.End()]; got != tok.Lexeme {
				t.Errorf("%q: lexeme %q does not match source %q", input, tok.Lexeme, got)
			}
			skipped := input[before:tok.Offset]
			if strings.Trim(skipped, " \t\n") != "" {
				t.Errorf("%q: cursor skipped non-whitespace %q", input, skipped)
			}
			if l.Position()-tok.Offset != len(tok.Lexeme) {
				t.Errorf("%q: cursor delta %d != lexeme length %d", input, l.Position()-tok.Offset, len(tok.Lexeme))
			}
			rebuilt.WriteString(tok.Lexeme)
		}
		if want := stripWhitespace(input); rebuilt.String() != want {
			t.Errorf("rebuilt %q, want %q", rebuilt.String(), want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		input    string
		category Category
		length   int
	}{
		{"", EndOfLine, 0},
		{"+", AddOp, 1},
		{"-5", SubOp, 1},
		{"*", MultOp, 1},
		{"/", DivOp, 1},
		{"^", ExponOp, 1},
		{"<", LessThanOp, 1},
		{"<=", LessThanOrEqualOp, 2},
		{">", GreaterThanOp, 1},
		{">=", GreaterThanOrEqualOp, 2},
		{"=", AssignOp, 1},
		{"==", EqualsOp, 2},
		{"!", NotOp, 1},
		{"!=", NotEqualsOp, 2},
		{"(", LeftParen, 1},
		{")", RightParen, 1},
		{";", SemiColon, 1},
		{"007x", IntLiteral, 3},
		{"x", Invalid, 1},
		{" ", Invalid, 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			category, length := Classify(tt.input)
			if category != tt.category || length != tt.length {
				t.Errorf("Classify(%q) = (%v, %d), want (%v, %d)", tt.input, category, length, tt.category, tt.length)
			}
		})
	}
}

func TestCategory_String(t *testing.T) {
	tests := []struct {
		category Category
		name     string
		article  string
	}{
		{AddOp, "ADD_OP", "an"},
		{SubOp, "SUB_OP", "a"},
		{IntLiteral, "INT_LITERAL", "an"},
		{ExponOp, "EXPON_OP", "an"},
		{EqualsOp, "EQUALS_OP", "an"},
		{LeftParen, "LEFT_PAREN", "a"},
		{SemiColon, "SEMI_COLON", "a"},
		{Invalid, "INVALID", "an"},
		{Category(99), "UNKNOWN", "an"},
	}

	for _, tt := range tests {
		if got := tt.category.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.category.Article(); got != tt.article {
			t.Errorf("%s.Article() = %q, want %q", tt.name, got, tt.article)
		}
	}
}

func TestCategories(t *testing.T) {
	all := Categories()
	if len(all) != 18 {
		t.Fatalf("expected 18 lexeme categories, got %d", len(all))
	}
	for _, c := range all {
		if c == EndOfLine {
			t.Error("END_OF_LINE is not a lexeme category")
		}
		if c.String() == "UNKNOWN" {
			t.Errorf("category %d has no name", c)
		}
	}
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if isWhitespace(byte(r)) {
			return -1
		}
		return r
	}, s)
}
