package dialog

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{5,32}$`)

// ValidationError reports user input that cannot be accepted. It is always
// recovered by re-prompting in the same state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ParseUsername trims the input and an optional leading @ and checks the
// Telegram handle format.
func ParseUsername(input string) (string, error) {
	username := strings.TrimPrefix(strings.TrimSpace(input), "@")
	if !usernamePattern.MatchString(username) {
		return "", &ValidationError{Field: "username", Reason: "expected 5-32 letters, digits or underscores"}
	}
	return username, nil
}

// ParsePrice accepts a non-negative decimal number; a comma may be used as
// the decimal separator.
func ParsePrice(input string) (float64, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(input), ",", ".")
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, &ValidationError{Field: "price", Reason: "not a number"}
	}
	if price < 0 {
		return 0, &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	return price, nil
}
