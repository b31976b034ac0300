package synth

import (
	"errors"
	"fmt"
)

// ErrUnsupportedAudio reports that the local engine returned a payload
// shape the converter cannot interpret.
var ErrUnsupportedAudio = errors.New("synth: unsupported audio payload from engine")

// RemoteError reports a failed call to the hosted provider, either a
// non-success response (Status set, Body carrying the response text) or
// a transport failure (wrapped in Err).
type RemoteError struct {
	Status int
	Body   string
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("synth: remote synthesis failed: %v", e.Err)
	}
	return fmt.Sprintf("synth: remote synthesis failed: status %d: %s", e.Status, e.Body)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// LocalError reports a failed invocation of the local engine.
type LocalError struct {
	Err error
}

func (e *LocalError) Error() string {
	return fmt.Sprintf("synth: local synthesis failed: %v", e.Err)
}

func (e *LocalError) Unwrap() error { return e.Err }

// ConfigError reports settings missing before any provider call was
// attempted.
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("synth: missing required setting %s", e.Field)
}
