package tokenizer

import (
	"errors"
	"unicode/utf8"
)

// CountResult captures the outcome of counting a byte slice.
// Counted is false when the data is not valid UTF-8 text.
type CountResult struct {
	Tokens  int
	Counted bool
}

// CountBytes decodes data as UTF-8 and counts its tokens with counter.
// Invalid UTF-8 is never substituted: such data is reported as not counted.
func CountBytes(counter Counter, data []byte) (CountResult, error) {
	if counter == nil {
		return CountResult{}, errors.New("nil tokenizer counter")
	}
	if !utf8.Valid(data) {
		return CountResult{Counted: false}, nil
	}
	tokens, err := counter.CountString(string(data))
	if err != nil {
		return CountResult{}, err
	}
	return CountResult{Tokens: tokens, Counted: true}, nil
}

// WordCounter counts whitespace separated words. It needs no model data and
// backs offline runs and tests.
type WordCounter struct{}

// Name returns the counter name.
func (WordCounter) Name() string { return "words" }

// CountString returns the number of whitespace separated fields in input.
func (WordCounter) CountString(input string) (int, error) {
	count := 0
	inWord := false
	for _, character := range input {
		switch character {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			inWord = false
		default:
			if !inWord {
				count++
				inWord = true
			}
		}
	}
	return count, nil
}
