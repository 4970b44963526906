package splitter

import (
	"fmt"
	"time"

	"github.com/oshokin/cue-splitter/internal/cue"
	"github.com/oshokin/cue-splitter/internal/ffmpeg"
)

const (
	// trackNumberPaddingWidth is the width of zero-padded track numbers in filenames.
	trackNumberPaddingWidth = 2
	// secondsInMinute is used when formatting durations the way CUE sheets count them.
	secondsInMinute = 60
	// minutesInHour is used when formatting durations.
	minutesInHour = 60
	// unknownDuration is displayed when a duration cannot be estimated.
	unknownDuration = "?"
	// unknownAlbum is displayed when a sheet has no album title.
	unknownAlbum = "(unknown album)"
	// unknownArtist is displayed when a sheet has no album performer.
	unknownArtist = "(unknown artist)"
	// progressBarWidth is the width of the per-album progress bar.
	progressBarWidth = 30
)

// ItemCategory represents the kind of item an error refers to.
type ItemCategory uint8

const (
	// ItemCategoryUnknown - unknown category.
	ItemCategoryUnknown ItemCategory = iota
	// ItemCategoryAlbum - a FLAC + CUE pair.
	ItemCategoryAlbum
	// ItemCategoryTrack - a single track of an album.
	ItemCategoryTrack
)

// String returns a human-readable representation of the ItemCategory.
func (ic ItemCategory) String() string {
	switch ic {
	case ItemCategoryUnknown:
		return "unknown"
	case ItemCategoryAlbum:
		return "album"
	case ItemCategoryTrack:
		return "track"
	default:
		return fmt.Sprintf("unknown: %d", ic)
	}
}

// AlbumPair is a CUE sheet and the FLAC image it describes.
type AlbumPair struct {
	// CuePath is the path of the CUE sheet.
	CuePath string
	// FLACPath is the path of the single-file FLAC image.
	FLACPath string
}

// Album is a planned split of one FLAC + CUE pair.
type Album struct {
	// Pair is the source files.
	Pair AlbumPair
	// Sheet is the parsed CUE sheet, nil when ParseErr is set.
	Sheet *cue.Sheet
	// ParseErr is the reason the sheet could not be read.
	ParseErr error
	// PlanErr is the reason a parsed sheet cannot be split.
	PlanErr error
	// OutputDir is where track files are written.
	OutputDir string
	// Folder is the FLAC directory relative to the scan root, used for display.
	Folder string
	// Jobs are the per-track extractions in sheet order.
	Jobs []*TrackJob
	// SourceSize is the size of the FLAC image in bytes.
	SourceSize int64
	// TotalDuration is the length of the FLAC image, zero when unknown.
	TotalDuration time.Duration
	// IsAlreadySplit is set when every expected track file exists.
	IsAlreadySplit bool
	// CoverPath is the cover image embedded into tracks, empty when none.
	CoverPath string
}

// IsSplittable reports whether the album can be split.
func (a *Album) IsSplittable() bool {
	return a.ParseErr == nil && a.PlanErr == nil
}

// Title returns the album title for display.
func (a *Album) Title() string {
	if a.Sheet == nil || a.Sheet.Title == "" {
		return unknownAlbum
	}

	return a.Sheet.Title
}

// Artist returns the album artist for display.
func (a *Album) Artist() string {
	if a.Sheet == nil || a.Sheet.Performer == "" {
		return unknownArtist
	}

	return a.Sheet.Performer
}

// TrackJob is the extraction of one track.
type TrackJob struct {
	// Track is the parsed sheet entry.
	Track *cue.Track
	// Filename is the output file name.
	Filename string
	// OutputPath is the final output path.
	OutputPath string
	// Duration is the track length, valid when HasDuration is set.
	Duration cue.Timestamp
	// HasDuration is false for the last track, which runs to the end of the image.
	HasDuration bool
	// Request is the ffmpeg extraction; its Output is the temporary .part path.
	Request *ffmpeg.ExtractRequest
	// Tags are the values written by the tag finalizer and used by filename templates.
	Tags map[string]string
}

// AlbumResult is the outcome of splitting one album.
type AlbumResult struct {
	// Extracted is the number of tracks written.
	Extracted int
	// Failed is the number of tracks that could not be written.
	Failed int
	// BytesWritten is the total size of written tracks.
	BytesWritten int64
}

// SplitStatistics tracks metrics for a split session.
type SplitStatistics struct {
	// StartTime is when the session began.
	StartTime time.Time
	// EndTime is when the session completed.
	EndTime time.Time
	// IsDryRun indicates if this was a dry-run preview.
	IsDryRun bool
	// AlbumsFound is the number of FLAC + CUE pairs found.
	AlbumsFound int64
	// AlbumsSplit is the number of albums split without track failures.
	AlbumsSplit int64
	// AlbumsPending is the number of albums a dry run would split.
	AlbumsPending int64
	// AlbumsAlreadySplit is the number of albums whose tracks all exist.
	AlbumsAlreadySplit int64
	// AlbumsFailed is the number of albums that could not be parsed, planned or fully split.
	AlbumsFailed int64
	// TracksExtracted is the number of tracks written.
	TracksExtracted int64
	// TracksFailed is the number of tracks that failed.
	TracksFailed int64
	// SourcesDeleted is the number of source FLAC files deleted.
	SourcesDeleted int64
	// TotalBytesWritten is the total size of written tracks.
	TotalBytesWritten int64
	// Errors is a list of all errors encountered during the session.
	Errors []SplitError
}

// SplitError represents a single error that occurred during a session.
type SplitError struct {
	// Category is the type of item that failed.
	Category ItemCategory
	// ItemTitle is the human-readable title of the item.
	ItemTitle string
	// ItemPath is the file the error refers to.
	ItemPath string
	// ErrorMessage is the error message.
	ErrorMessage string
	// Phase indicates when the error occurred (e.g., "parsing cue sheet", "extracting track").
	Phase string
	// ParentTitle is the album title for track errors.
	ParentTitle string
}
