package cue

// Sheet is a parsed CUE sheet.
type Sheet struct {
	// Title is the album title.
	Title string
	// Performer is the album artist.
	Performer string
	// Songwriter is the album songwriter.
	Songwriter string
	// Catalog is the media catalog number (UPC/EAN).
	Catalog string
	// Genre comes from REM GENRE.
	Genre string
	// Date comes from REM DATE, usually a year.
	Date string
	// DiscID comes from REM DISCID.
	DiscID string
	// DiscNumber comes from REM DISCNUMBER.
	DiscNumber string
	// TotalDiscs comes from REM TOTALDISCS.
	TotalDiscs string
	// Comment comes from REM COMMENT.
	Comment string
	// Composer comes from REM COMPOSER.
	Composer string
	// FileName is the audio file referenced before the first track.
	FileName string
	// FileCount is the number of FILE commands in the sheet.
	FileCount int
	// Encoding is the name of the detected text encoding.
	Encoding string
	// Tracks are the audio tracks in sheet order.
	Tracks []*Track
}

// Track is one audio track of a sheet.
type Track struct {
	// Number is the track number from the TRACK command.
	Number int
	// Title is the track title, "Track N" when the sheet has none.
	Title string
	// Performer is the track artist, the album performer when the sheet has none.
	Performer string
	// Songwriter is the track songwriter.
	Songwriter string
	// Composer comes from the track's REM COMPOSER.
	Composer string
	// ISRC is the International Standard Recording Code.
	ISRC string
	// Pregap is the INDEX 00 position, valid when HasPregap is set.
	Pregap Timestamp
	// HasPregap reports whether the track has an INDEX 00 entry.
	HasPregap bool
	// Start is the INDEX 01 position.
	Start Timestamp
}

// TrackDuration returns the length of the i-th track: the next track's start minus this one's.
// The second value is false for the last track, which runs to the end of the file,
// and for an index out of range.
func (s *Sheet) TrackDuration(i int) (Timestamp, bool) {
	if i < 0 || i+1 >= len(s.Tracks) {
		return 0, false
	}

	return s.Tracks[i+1].Start - s.Tracks[i].Start, true
}

// IsSingleFile reports whether all tracks live in one audio file.
func (s *Sheet) IsSingleFile() bool {
	return s.FileCount <= 1
}

// LastStart returns the start of the final track.
func (s *Sheet) LastStart() Timestamp {
	if len(s.Tracks) == 0 {
		return 0
	}

	return s.Tracks[len(s.Tracks)-1].Start
}

// AlbumArtist returns the album performer, falling back to the first track's performer.
func (s *Sheet) AlbumArtist() string {
	if s.Performer != "" || len(s.Tracks) == 0 {
		return s.Performer
	}

	return s.Tracks[0].Performer
}
