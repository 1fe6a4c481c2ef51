// ABOUTME: Error taxonomy for the codec boundary
// ABOUTME: Transient control-flow signals and fatal setup/decode errors
package codec

import (
	"errors"
	"fmt"
)

// ErrAgain is the transient "not ready, call again" signal used by
// ReadPacket, Send and Receive. It is control flow, absorbed inside the
// decode loop, and never surfaces to callers. End of stream is io.EOF.
var ErrAgain = errors.New("codec: resource temporarily unavailable")

// ErrNoAudioStream indicates the container holds no audio stream.
var ErrNoAudioStream = errors.New("codec: no audio stream in container")

// ErrNoCompatibleFormat indicates format negotiation found no workable
// sample format between the decoder and the caller's preference.
var ErrNoCompatibleFormat = errors.New("codec: no compatible sample format")

// SetupError wraps a failure while opening a container or configuring a
// decoder.
type SetupError struct {
	Op  string
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("codec: setup %s: %v", e.Op, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// DecodeError wraps a fatal error from the decoder or demuxer during
// packet/frame handling or conversion.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("codec: %s: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
