package edges

import (
	"math"
	"strconv"
	"strings"
)

// Exponential formats v in exponent notation with the given fraction
// digits and a minimal signed exponent, as in "9.000e-1" or "1.25e+2".
func Exponential(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	s := strconv.FormatFloat(v, 'e', digits, 64)
	mant, exp, ok := strings.Cut(s, "e")
	if !ok {
		return s
	}
	sign := exp[0]
	digitsPart := strings.TrimLeft(exp[1:], "0")
	if digitsPart == "" {
		digitsPart = "0"
	}
	return mant + "e" + string(sign) + digitsPart
}

// FormatThreshold renders a threshold for the layer control label.
func FormatThreshold(v float64) string {
	return Exponential(v, 2)
}
