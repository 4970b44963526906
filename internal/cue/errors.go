package cue

import "errors"

// Static error definitions for better error handling.
var (
	// ErrInvalidTimestamp indicates that an index position is not in MM:SS:FF form.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	// ErrNoTracks indicates that a sheet contains no audio track with an INDEX 01 entry.
	ErrNoTracks = errors.New("no audio tracks found")
	// ErrUnknownEncoding indicates that a configured charset name is not recognized.
	ErrUnknownEncoding = errors.New("unknown encoding")
	// ErrUndecodable indicates that none of the candidate encodings can decode the sheet.
	ErrUndecodable = errors.New("unable to detect text encoding")
)
