package engine

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	scientificThreshold = 1e15
	maxFractionDigits   = 10
)

var englishPrinter = message.NewPrinter(language.English)

// Format renders a computed value for display. Infinities become "∞", values
// beyond ±1e15 use scientific notation with five fractional digits, and
// everything else gets thousands separators and at most ten fractional digits.
// Fractional digits past the tenth are cut, not rounded.
func Format(n float64) string {
	if math.IsInf(n, 0) {
		return InfinityDisplay
	}
	if n > scientificThreshold || n < -scientificThreshold {
		return strconv.FormatFloat(n, 'e', 5, 64)
	}

	s := numberString(n)
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	out := groupInteger(intPart)
	if hasFrac {
		if len(fracPart) > maxFractionDigits {
			fracPart = fracPart[:maxFractionDigits]
		}
		out += "." + fracPart
	}
	return out
}

// numberString is the shortest round-trip decimal form of n, switching to
// exponent notation for magnitudes below 1e-6.
func numberString(n float64) string {
	if n == 0 {
		return "0"
	}
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.Abs(n) >= 1e-6 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}

	s := strconv.FormatFloat(n, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	exp = strings.TrimLeft(exp[1:], "0")
	if exp == "" {
		exp = "0"
	}
	return mantissa + "e" + sign + exp
}

func groupInteger(s string) string {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return ""
	}
	digits := englishPrinter.Sprintf("%d", int64(math.Round(math.Abs(v))))
	if strings.HasPrefix(s, "-") {
		return "-" + digits
	}
	return digits
}
