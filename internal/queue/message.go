package queue

import (
	"encoding/json"
	"errors"
	"strings"
)

// MessageVersion is the current payload version produced by Send callers.
const MessageVersion = 1

// Message asks a worker to run content extraction for one document.
type Message struct {
	DocumentID string `json:"documentId"`
	FilePath   string `json:"filePath"`
	UserID     string `json:"userId"`
	RequestID  string `json:"requestId,omitempty"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// Validate reports whether the message carries everything a worker needs.
func (m Message) Validate() error {
	var errs []error
	if strings.TrimSpace(m.DocumentID) == "" {
		errs = append(errs, errors.New("documentId is required"))
	}
	if strings.TrimSpace(m.FilePath) == "" {
		errs = append(errs, errors.New("filePath is required"))
	}
	if strings.TrimSpace(m.UserID) == "" {
		errs = append(errs, errors.New("userId is required"))
	}
	return errors.Join(errs...)
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
