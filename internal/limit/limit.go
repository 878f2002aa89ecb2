// Package limit decides what happens to record text that exceeds the
// configured character limit.
package limit

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Behavior is the configured policy for over-long text.
type Behavior string

const (
	Ignore   Behavior = "Ignore"
	Skip     Behavior = "Skip"
	Truncate Behavior = "Truncate"
)

// Behaviors lists the accepted values in display order.
var Behaviors = []Behavior{Ignore, Skip, Truncate}

// ParseBehavior accepts any casing of a known behavior name.
func ParseBehavior(s string) (Behavior, error) {
	needle := strings.TrimSpace(s)
	for _, b := range Behaviors {
		if strings.EqualFold(string(b), needle) {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown limit behavior %q (expected Ignore, Skip or Truncate)", s)
}

// Decision is the result of applying a Behavior to a text length.
type Decision int

const (
	Proceed Decision = iota
	SkipText
	TruncateText
)

func (d Decision) String() string {
	switch d {
	case SkipText:
		return "Skipped"
	case TruncateText:
		return "Truncated"
	default:
		return "Proceed"
	}
}

// Decide applies behavior to a text of textLength characters.
func Decide(textLength, charLimit int, behavior Behavior) Decision {
	if textLength <= charLimit {
		return Proceed
	}
	switch behavior {
	case Skip:
		return SkipText
	case Truncate:
		return TruncateText
	default:
		return Proceed
	}
}

// Counter defines what a "character" is for length and truncation.
type Counter int

const (
	// Runes counts Unicode code points.
	Runes Counter = iota
	// Graphemes counts user-perceived characters.
	Graphemes
)

// Len returns the length of text in characters.
func (c Counter) Len(text string) int {
	if c == Graphemes {
		return uniseg.GraphemeClusterCount(text)
	}
	return utf8.RuneCountInString(text)
}

// Truncate keeps characters 0..charLimit inclusive, i.e. charLimit+1 of them.
func (c Counter) Truncate(text string, charLimit int) string {
	if charLimit < 0 {
		charLimit = 0
	}
	keep := charLimit + 1
	if c == Graphemes {
		g := uniseg.NewGraphemes(text)
		n := 0
		for g.Next() {
			if n == keep {
				from, _ := g.Positions()
				return text[:from]
			}
			n++
		}
		return text
	}
	n := 0
	for i := range text {
		if n == keep {
			return text[:i]
		}
		n++
	}
	return text
}

// Group formats n with "." between groups of three digits: 12000 -> "12.000".
func Group(n int) string {
	digits := strconv.Itoa(n)
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}
	var sb strings.Builder
	sb.WriteString(sign)
	head := len(digits) % 3
	if head > 0 {
		sb.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if sb.Len() > len(sign) {
			sb.WriteByte('.')
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}

// Message is the human-readable comparison logged for Skip and Truncate.
func Message(textLength, charLimit int, d Decision) string {
	return "Text length " + Group(textLength) + " > Limit " + Group(charLimit) + " -> " + d.String()
}
