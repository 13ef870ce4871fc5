package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidInput matches any decode that met an unrecognized direction word.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError lists the motors whose direction word was not recognized.
// Their directions were left unchanged; every other motor was decoded.
type InvalidInputError struct {
	Payload string
	Motors  []int
}

// Error implements error.
func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %q: unrecognized direction for motors %v", e.Payload, e.Motors)
}

// Is lets errors.Is match ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Decode parses payload into table. Motor i takes token 2i as its direction
// word and token 2i+1 as its turn count. Missing tokens read as "", so a short
// payload marks the remaining motors unrecognized with zero turns.
//
// An unrecognized direction leaves that entry's direction as it was but still
// writes its turn count. Decoding always covers every motor; the returned
// *InvalidInputError collects all unrecognized slots.
func Decode(payload string, table Table) error {
	words := make([]string, 2*len(table))
	n := 0
	for tok := range Tokens(payload, Separator) {
		if n == len(words) {
			break
		}
		words[n] = tok
		n++
	}

	var invalid []int
	for i := range table {
		if d, ok := ParseDirection(words[2*i]); ok {
			table[i].Direction = d
		} else {
			invalid = append(invalid, i)
		}
		table[i].Turns = ParseMagnitude(words[2*i+1])
	}

	if len(invalid) > 0 {
		return &InvalidInputError{Payload: payload, Motors: invalid}
	}
	return nil
}

// Encode renders table as a frame payload, the inverse of Decode. Turn counts
// are clamped to ±MaxMagnitude, the range Decode reads back.
func Encode(table Table) string {
	var b strings.Builder
	for i, cmd := range table {
		if i > 0 {
			b.WriteByte(Separator)
		}
		b.WriteString(cmd.Direction.String())
		b.WriteByte(Separator)
		b.WriteString(strconv.Itoa(max(-MaxMagnitude, min(cmd.Turns, MaxMagnitude))))
	}
	return b.String()
}
