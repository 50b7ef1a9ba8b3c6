package calculator

import (
	"math"
	"strconv"
	"strings"
)

// FormatOperand renders a number the way it is shown in the calculation
// string: shortest round-trip digits, plain decimal for everyday magnitudes
// and exponent form ("1e+21", "1.5e-7") for very large or very small ones.
func FormatOperand(x float64) string {
	if x == 0 {
		return "0"
	}

	abs := math.Abs(x)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(x, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mantissa + "e" + sign + digits
	}

	return strconv.FormatFloat(x, 'f', -1, 64)
}
