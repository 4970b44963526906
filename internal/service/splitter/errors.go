package splitter

import (
	"context"
	"errors"
)

// Common errors for the service layer.
var (
	// ErrMultiFileSheet indicates that a sheet spreads its tracks over several audio files.
	ErrMultiFileSheet = errors.New("cue sheet references more than one audio file")
	// ErrUnorderedTracks indicates that track start positions do not strictly increase.
	ErrUnorderedTracks = errors.New("track start positions are not increasing")
	// ErrTrackBeyondSource indicates that a track starts after the end of the FLAC image.
	ErrTrackBeyondSource = errors.New("track starts beyond the end of the source")
	// ErrSourceIsTrack indicates that a planned track would overwrite the source image.
	ErrSourceIsTrack = errors.New("track output path matches the source file")
	// ErrEmptyTrackPath indicates that the track file path is empty.
	ErrEmptyTrackPath = errors.New("track path cannot be empty")
	// ErrNoStreamInfo indicates that a FLAC file lacks a readable STREAMINFO block.
	ErrNoStreamInfo = errors.New("flac stream info not found")
	// ErrInvalidFLACStream indicates that a FLAC file has no audio frames after its metadata.
	ErrInvalidFLACStream = errors.New("flac file has no audio frames")
	// ErrTrackPanicked indicates that extracting a track panicked.
	ErrTrackPanicked = errors.New("track extraction panicked")
)

// ErrorContext provides context information for split errors.
type ErrorContext struct {
	// Category is the type of item that failed.
	Category ItemCategory
	// ItemTitle is the human-readable title of the item.
	ItemTitle string
	// ItemPath is the file the error refers to.
	ItemPath string
	// Phase indicates when the error occurred.
	Phase string
	// ParentTitle is the album title for track errors.
	ParentTitle string
}

// recordError records an error in the statistics with proper context.
// Context cancellation errors are ignored as they are expected during graceful shutdown.
func (s *ServiceImpl) recordError(errCtx *ErrorContext, err error) {
	if errCtx == nil || err == nil {
		return
	}

	// Don't record context cancellation as an error - it's expected when user presses CTRL+C.
	if errors.Is(err, context.Canceled) {
		return
	}

	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.Errors = append(s.stats.Errors, SplitError{
		Category:     errCtx.Category,
		ItemTitle:    errCtx.ItemTitle,
		ItemPath:     errCtx.ItemPath,
		ErrorMessage: err.Error(),
		Phase:        errCtx.Phase,
		ParentTitle:  errCtx.ParentTitle,
	})
}
