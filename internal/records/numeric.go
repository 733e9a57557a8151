package records

import (
	"regexp"
	"strconv"

	"alcyxob/fitness-tracker/internal/domain"
)

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?|\.\d+`)

// ParseNumber extracts the first decimal number from free text ("3 sets" -> 3).
func ParseNumber(text string) (float64, bool) {
	match := numberPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// numberOr returns the parsed number, or fallback when the text holds no positive number.
func numberOr(text domain.FlexString, fallback float64) float64 {
	if v, ok := ParseNumber(string(text)); ok && v != 0 {
		return v
	}
	return fallback
}

// optionalNumber mirrors "Number(x) || null": zero and missing both mean absent.
func optionalNumber(text domain.FlexString) *float64 {
	v, ok := ParseNumber(string(text))
	if !ok || v == 0 {
		return nil
	}
	return &v
}
