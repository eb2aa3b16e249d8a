package evaluator

import (
	"math"

	"github.com/msto63/bexpr/internal/lexer"
)

func addInt(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

func subInt(a, b int64) (int64, bool) {
	diff := a - b
	if (b > 0 && diff > a) || (b < 0 && diff < a) {
		return 0, false
	}
	return diff, true
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	product := a * b
	if product/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return product, true
}

// compare applies a comparison operator and yields 1 for true, 0 for false
func compare(op lexer.Category, a, b int64) int64 {
	var result bool
	switch op {
	case lexer.LessThanOp:
		result = a < b
	case lexer.GreaterThanOp:
		result = a > b
	case lexer.LessThanOrEqualOp:
		result = a <= b
	case lexer.GreaterThanOrEqualOp:
		result = a >= b
	case lexer.EqualsOp:
		result = a == b
	case lexer.NotEqualsOp:
		result = a != b
	}
	if result {
		return 1
	}
	return 0
}

// power raises base to exponent and truncates the result to an integer.
// Non-negative exponents are computed exactly; negative exponents go
// through math.Pow. ok is false when the result is not a finite int64.
func power(base, exponent int64) (int64, bool) {
	if exponent < 0 {
		f := math.Pow(float64(base), float64(exponent))
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int64(f), true
	}

	result := int64(1)
	for exponent > 0 {
		var ok bool
		if exponent&1 == 1 {
			if result, ok = mulInt(result, base); !ok {
				return 0, false
			}
		}
		exponent >>= 1
		if exponent > 0 {
			if base, ok = mulInt(base, base); !ok {
				return 0, false
			}
		}
	}
	return result, true
}
