package identity

import (
	"errors"
	"fmt"
	"strconv"
)

// MaxSequence is the highest sequence a single filing year can hold.
// The identifier format reserves three digits for it.
const MaxSequence = 999

const (
	yearDigits     = 4
	sequenceDigits = 3
)

var (
	// ErrExhausted is returned when a year has used every sequence number.
	ErrExhausted = errors.New("identity: sequence space exhausted")
	// ErrMalformed is returned by Parse for strings that are not YYYY###.
	ErrMalformed = errors.New("identity: malformed case identifier")
)

// Format builds a case identifier from a filing year and a sequence.
func Format(year, seq int) (string, error) {
	if year < 1000 || year > 9999 {
		return "", fmt.Errorf("identity: year %d out of range", year)
	}
	if seq < 1 {
		return "", fmt.Errorf("identity: sequence %d out of range", seq)
	}
	if seq > MaxSequence {
		return "", ErrExhausted
	}
	return fmt.Sprintf("%04d%03d", year, seq), nil
}

// Parse splits a case identifier into its year and sequence parts.
func Parse(id string) (year, seq int, err error) {
	if len(id) != yearDigits+sequenceDigits {
		return 0, 0, ErrMalformed
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return 0, 0, ErrMalformed
		}
	}
	year, _ = strconv.Atoi(id[:yearDigits])
	seq, _ = strconv.Atoi(id[yearDigits:])
	if year < 1000 || seq < 1 {
		return 0, 0, ErrMalformed
	}
	return year, seq, nil
}

// Valid reports whether id is a well-formed case identifier.
func Valid(id string) bool {
	_, _, err := Parse(id)
	return err == nil
}
