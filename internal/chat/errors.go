package chat

import "errors"

var (
	ErrNotFound     = errors.New("chat session not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrCompletion wraps a failed LLM call; the user message is already stored.
	ErrCompletion = errors.New("assistant reply failed")
)
