// internal/utils/text.go
package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// WordCount counts whitespace-delimited tokens.
func WordCount(content string) int {
	return len(strings.Fields(content))
}

// ParsePrice converts a validated price string such as "4.99" to a float.
// An empty string is free.
func ParsePrice(price string) (float64, error) {
	if price == "" {
		return 0, nil
	}
	if !pricePattern.MatchString(price) {
		return 0, fmt.Errorf("invalid price %q", price)
	}
	return strconv.ParseFloat(price, 64)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike makes a user term match literally inside a LIKE pattern that
// uses backslash as its escape character.
func EscapeLike(term string) string {
	return likeEscaper.Replace(term)
}
