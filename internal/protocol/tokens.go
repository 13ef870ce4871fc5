package protocol

import (
	"iter"
	"math"
	"strings"
)

// Separator splits tokens inside a frame payload.
const Separator = ','

// Tokens yields the sep-delimited fields of s in order. The end of s acts as
// a trailing separator, so "" yields a single empty token and "a," yields
// "a" and "". Each call starts a fresh scan.
func Tokens(s string, sep byte) iter.Seq[string] {
	return func(yield func(string) bool) {
		rest := s
		for {
			i := strings.IndexByte(rest, sep)
			if i < 0 {
				yield(rest)
				return
			}
			if !yield(rest[:i]) {
				return
			}
			rest = rest[i+1:]
		}
	}
}

// Value returns the token at index, or "" when s has fewer tokens.
func Value(s string, sep byte, index int) string {
	if index < 0 {
		return ""
	}
	i := 0
	for tok := range Tokens(s, sep) {
		if i == index {
			return tok
		}
		i++
	}
	return ""
}

// MaxMagnitude bounds turn counts in either direction.
const MaxMagnitude = math.MaxInt32

// ParseMagnitude reads the leading decimal integer of s, after optional
// spaces and sign. Anything that does not start with a digit yields 0, and
// trailing non-digits are ignored, so "12ab" is 12. Values saturate at the
// 32-bit range the motor driver counts in.
func ParseMagnitude(s string) int {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\r' || s[i] == '\n') {
		i++
	}

	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}

	n := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if n < MaxMagnitude {
			n = min(n*10+int(s[i]-'0'), MaxMagnitude)
		}
	}
	if neg {
		return -n
	}
	return n
}
