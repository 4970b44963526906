// Package cue reads CUE sheets: it detects the text encoding of a sheet,
// parses its commands into album and track records and converts
// MM:SS:FF index positions into durations.
package cue
