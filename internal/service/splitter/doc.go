// Package splitter provides the service that finds single-file FLAC albums with CUE sheets
// and splits them into one FLAC file per track.
package splitter
