package genai

import "fmt"

// GenerationError is returned for network failures, non-2xx responses and
// malformed envelopes. Message is meant for the operator.
type GenerationError struct {
	Op      string
	Model   string
	Status  int
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("genai %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("genai %s (%s): %s", e.Op, e.Model, e.Message)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ParseError means the call succeeded but the structured payload did not decode.
type ParseError struct {
	Model string
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("genai parse (%s): %v", e.Model, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
