package codey

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request or value failed validation.
	ErrValidation = errors.New("validation error")

	// ErrTransport indicates the remote generation service failed, either
	// while opening a stream, mid-stream, or during a one-shot call.
	ErrTransport = errors.New("transport failure")

	// ErrMalformedResponse indicates a response did not match the shape the
	// caller asked for (e.g. a JSON payload failing its schema).
	ErrMalformedResponse = errors.New("malformed response")

	// ErrUserInputRejected indicates a submit with neither text nor an
	// attachment. Such input is never sent.
	ErrUserInputRejected = errors.New("user input rejected")

	// ErrBusy indicates a session already has a streaming assistant message.
	ErrBusy = errors.New("session busy: a response is still streaming")

	// ErrSessionNotFound indicates the referenced session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrMessageNotFound indicates the referenced message does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrMessageFinalized indicates an attempt to mutate a frozen message.
	ErrMessageFinalized = errors.New("message finalized")

	// ErrNoActiveSession indicates no session is currently active.
	ErrNoActiveSession = errors.New("no active session")

	// ErrStreamNotReady indicates Reply() was called before Next().
	ErrStreamNotReady = errors.New("stream not ready: call Next() first")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")
)
