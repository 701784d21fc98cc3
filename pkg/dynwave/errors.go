// ABOUTME: Error values returned by the player
// ABOUTME: Callers match them with errors.Is
package dynwave

import "errors"

var (
	// ErrDevice means no device was available, the stream could not start or
	// stop, or the device was lost. The player must be reconstructed.
	ErrDevice = errors.New("audio device error")

	// ErrFormat means no supported device format has the requested channel count
	ErrFormat = errors.New("unsupported audio format")

	// ErrResample means the rate converter failed again after a reset and retry
	ErrResample = errors.New("resampling failed")

	// ErrConfig means the player configuration is invalid
	ErrConfig = errors.New("invalid player configuration")

	// ErrPartialFrame means a queued chunk is not a whole number of frames
	ErrPartialFrame = errors.New("sample count is not a multiple of the channel count")

	// ErrClosed is returned by every call after Close
	ErrClosed = errors.New("player closed")
)
