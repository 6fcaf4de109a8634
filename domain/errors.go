package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Avatar session errors
var (
	// ErrAuthTimeout is returned when the avatar host does not issue a token in time
	ErrAuthTimeout = errors.New("timed out waiting for avatar host authentication token")
	// ErrAuthRejected is returned when the host refuses or garbles an authentication exchange
	ErrAuthRejected = errors.New("avatar host rejected authentication")
	// ErrHostRejected is the target for errors.Is on any HostRejectedError
	ErrHostRejected = errors.New("avatar host rejected request")
	// ErrNotConnected is returned by session operations issued before Connect succeeded
	ErrNotConnected = errors.New("not connected to avatar host")
	// ErrSessionClosed is returned by Connect after Close
	ErrSessionClosed = errors.New("avatar session closed")
)

// Conversation errors
var (
	ErrGenerationFailed = errors.New("text generation failed")
	ErrSynthesisFailed  = errors.New("speech synthesis failed")
	ErrEmptyInput       = errors.New("input text is empty")
)

// HostRejectedError carries the error payload the avatar host answered with.
type HostRejectedError struct {
	RequestType string
	ErrorID     int
	Message     string
	Payload     json.RawMessage
}

func (e *HostRejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("avatar host rejected %s (error %d): %s", e.RequestType, e.ErrorID, e.Message)
	}
	return fmt.Sprintf("avatar host rejected %s: %s", e.RequestType, string(e.Payload))
}

// Unwrap lets errors.Is match ErrHostRejected.
func (e *HostRejectedError) Unwrap() error {
	return ErrHostRejected
}
