package lexer

// Category is the closed set of token classifications.
type Category int

const (
	// EndOfLine is returned once the cursor has reached the end of the
	// line. It is not a lexeme.
	EndOfLine Category = iota
	Invalid

	IntLiteral

	AddOp
	SubOp
	MultOp
	DivOp
	ExponOp

	LessThanOp
	LessThanOrEqualOp
	GreaterThanOp
	GreaterThanOrEqualOp
	EqualsOp
	NotEqualsOp
	AssignOp
	NotOp

	LeftParen
	RightParen
	SemiColon
)

var categoryNames = map[Category]string{
	EndOfLine:            "END_OF_LINE",
	Invalid:              "INVALID",
	IntLiteral:           "INT_LITERAL",
	AddOp:                "ADD_OP",
	SubOp:                "SUB_OP",
	MultOp:               "MULT_OP",
	DivOp:                "DIV_OP",
	ExponOp:              "EXPON_OP",
	LessThanOp:           "LESS_THAN_OP",
	LessThanOrEqualOp:    "LESS_THAN_OR_EQUAL_OP",
	GreaterThanOp:        "GREATER_THAN_OP",
	GreaterThanOrEqualOp: "GREATER_THAN_OR_EQUAL_OP",
	EqualsOp:             "EQUALS_OP",
	NotEqualsOp:          "NOT_EQUALS_OP",
	AssignOp:             "ASSIGN_OP",
	NotOp:                "NOT_OP",
	LeftParen:            "LEFT_PAREN",
	RightParen:           "RIGHT_PAREN",
	SemiColon:            "SEMI_COLON",
}

// String returns the upper-snake category name used in listings
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// Article returns "an" when the category name starts with a vowel and "a"
// otherwise, as used in "is a(n) CATEGORY".
func (c Category) Article() string {
	switch c.String()[0] {
	case 'A', 'E', 'I', 'O', 'U':
		return "an"
	default:
		return "a"
	}
}

// IsComparison reports whether the category is one of the six comparison
// operators.
func (c Category) IsComparison() bool {
	switch c {
	case LessThanOp, LessThanOrEqualOp, GreaterThanOp, GreaterThanOrEqualOp, EqualsOp, NotEqualsOp:
		return true
	default:
		return false
	}
}

// Categories returns every category that can be assigned to a lexeme
func Categories() []Category {
	result := make([]Category, 0, len(categoryNames)-1)
	for c := Invalid; c <= SemiColon; c++ {
		result = append(result, c)
	}
	return result
}
