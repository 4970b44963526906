package ffmpeg

import "errors"

// Static error definitions for better error handling.
var (
	// ErrBinaryNotFound indicates that the ffmpeg binary is not installed or not in PATH.
	ErrBinaryNotFound = errors.New("ffmpeg not found")
	// ErrProcessFailed indicates that ffmpeg exited with a non-zero status.
	ErrProcessFailed = errors.New("ffmpeg process failed")
)
