// Package parse pulls the structured payload out of free-form provider text.
//
// Models are asked for exactly one JSON object or array but often wrap it in
// prose or markdown fences. Extract locates the first balanced bracketed
// substring of the requested shape; Decode then decodes it strictly into the
// target type and runs its Validate method. Any failure is a malformed
// response and the caller degrades to fallback content.
package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	assistant "github.com/deeplooplabs/ai-assistant"
)

// Shape is the top-level JSON shape a feature expects
type Shape int

const (
	// Object expects a {...} payload
	Object Shape = iota
	// Array expects a [...] payload
	Array
)

func (s Shape) String() string {
	if s == Array {
		return "array"
	}
	return "object"
}

func (s Shape) brackets() (open, close byte) {
	if s == Array {
		return '[', ']'
	}
	return '{', '}'
}

var (
	// ErrNoJSON means no balanced bracketed substring of the expected shape was found
	ErrNoJSON = errors.New("no JSON payload found")

	// ErrInvalid means the payload decoded but failed validation
	ErrInvalid = errors.New("payload failed validation")
)

// Validator is implemented by result types that check their own required fields
type Validator interface {
	Validate() error
}

// Extract returns the first balanced substring of raw that opens with the
// shape's bracket. Brackets inside JSON strings are ignored.
func Extract(raw string, shape Shape) (string, error) {
	open, _ := shape.brackets()

	for start := 0; start < len(raw); start++ {
		if raw[start] != open {
			continue
		}
		if end, ok := matchBracket(raw, start); ok {
			return raw[start : end+1], nil
		}
	}
	return "", ErrNoJSON
}

// matchBracket finds the index closing the bracket at raw[start]
func matchBracket(raw string, start int) (int, bool) {
	var stack []byte
	inString := false
	escaped := false

	for i := start; i < len(raw); i++ {
		ch := raw[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// Decode extracts the payload of the given shape from raw and decodes it into
// a T. A T implementing Validator must pass Validate. Every failure is an
// *assistant.Error of KindMalformedResponse.
func Decode[T any](raw string, shape Shape) (T, error) {
	var zero T

	payload, err := Extract(raw, shape)
	if err != nil {
		return zero, assistant.NewMalformedResponseError(fmt.Sprintf("expected JSON %s", shape), err)
	}

	var out T
	dec := json.NewDecoder(strings.NewReader(payload))
	if err := dec.Decode(&out); err != nil {
		return zero, assistant.NewMalformedResponseError("decode payload", err)
	}

	if v, ok := any(&out).(Validator); ok {
		if err := v.Validate(); err != nil {
			return zero, assistant.NewMalformedResponseError("validate payload", fmt.Errorf("%w: %v", ErrInvalid, err))
		}
	}

	return out, nil
}
