package cue

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const fullSheet = `REM GENRE "Jazz"
REM DATE 1959
REM DISCID 6E0A9B08
REM COMMENT "ExactAudioCopy v1.6"
REM DISCNUMBER 1
REM TOTALDISCS 2
CATALOG 0074646393527
PERFORMER "Miles Davis"
TITLE "Kind of Blue"
FILE "Miles Davis - Kind of Blue.flac" WAVE
  TRACK 01 AUDIO
    TITLE "So What"
    ISRC USSM15900113
    REM COMPOSER "Miles Davis"
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    TITLE "Freddie Freeloader"
    PERFORMER "Miles Davis Sextet"
    INDEX 00 09:20:10
    INDEX 01 09:22:35
  TRACK 03 AUDIO
    TITLE "Blue in Green"
    SONGWRITER "Bill Evans"
    INDEX 01 19:08:52
`

// TestParse tests parsing of a complete sheet.
func TestParse(t *testing.T) {
	t.Parallel()

	sheet, err := Parse(context.Background(), fullSheet)
	require.NoError(t, err)

	assert.Equal(t, "Kind of Blue", sheet.Title)
	assert.Equal(t, "Miles Davis", sheet.Performer)
	assert.Equal(t, "Jazz", sheet.Genre)
	assert.Equal(t, "1959", sheet.Date)
	assert.Equal(t, "6E0A9B08", sheet.DiscID)
	assert.Equal(t, "ExactAudioCopy v1.6", sheet.Comment)
	assert.Equal(t, "1", sheet.DiscNumber)
	assert.Equal(t, "2", sheet.TotalDiscs)
	assert.Equal(t, "0074646393527", sheet.Catalog)
	assert.Equal(t, "Miles Davis - Kind of Blue.flac", sheet.FileName)
	assert.Equal(t, 1, sheet.FileCount)
	assert.True(t, sheet.IsSingleFile())
	assert.Equal(t, EncodingUTF8, sheet.Encoding)

	require.Len(t, sheet.Tracks, 3)

	first := sheet.Tracks[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "So What", first.Title)
	assert.Equal(t, "Miles Davis", first.Performer)
	assert.Equal(t, "USSM15900113", first.ISRC)
	assert.Equal(t, "Miles Davis", first.Composer)
	assert.Equal(t, Timestamp(0), first.Start)
	assert.False(t, first.HasPregap)

	second := sheet.Tracks[1]
	assert.Equal(t, "Miles Davis Sextet", second.Performer)
	assert.True(t, second.HasPregap)
	assert.Equal(t, NewTimestamp(9, 20, 10), second.Pregap)
	assert.Equal(t, NewTimestamp(9, 22, 35), second.Start)

	third := sheet.Tracks[2]
	assert.Equal(t, "Bill Evans", third.Songwriter)
	assert.Equal(t, NewTimestamp(19, 8, 52), third.Start)
	assert.Equal(t, NewTimestamp(19, 8, 52), sheet.LastStart())
	assert.Equal(t, "Miles Davis", sheet.AlbumArtist())
}

// TestParse_EdgeCases tests best-effort parsing of unusual sheets.
func TestParse_EdgeCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		expectError error
		check       func(t *testing.T, sheet *Sheet)
	}{
		{
			name: "lower case keywords and CRLF line endings",
			input: "performer \"Portishead\"\r\ntitle \"Dummy\"\r\nfile \"dummy.flac\" wave\r\n" +
				"  track 1 audio\r\n    title \"Mysterons\"\r\n    index 01 00:00:00\r\n",
			check: func(t *testing.T, sheet *Sheet) {
				t.Helper()

				assert.Equal(t, "Dummy", sheet.Title)
				assert.Equal(t, "dummy.flac", sheet.FileName)
				require.Len(t, sheet.Tracks, 1)
				assert.Equal(t, "Mysterons", sheet.Tracks[0].Title)
				assert.Equal(t, "Portishead", sheet.Tracks[0].Performer)
			},
		},
		{
			name: "bare values",
			input: "PERFORMER Burial\nTITLE Untrue\nFILE untrue.flac WAVE\n" +
				"TRACK 01 AUDIO\nTITLE Archangel\nINDEX 01 00:00:00\n",
			check: func(t *testing.T, sheet *Sheet) {
				t.Helper()

				assert.Equal(t, "Burial", sheet.Performer)
				assert.Equal(t, "untrue.flac", sheet.FileName)
				assert.Equal(t, "Archangel", sheet.Tracks[0].Title)
			},
		},
		{
			name:  "missing title falls back to track number",
			input: "PERFORMER \"Aphex Twin\"\nFILE \"saw.flac\" WAVE\nTRACK 07 AUDIO\nINDEX 01 00:00:00\n",
			check: func(t *testing.T, sheet *Sheet) {
				t.Helper()

				assert.Equal(t, "Track 7", sheet.Tracks[0].Title)
				assert.Equal(t, "Aphex Twin", sheet.Tracks[0].Performer)
			},
		},
		{
			name: "tracks without INDEX 01 are dropped",
			input: "FILE \"a.flac\" WAVE\nTRACK 01 AUDIO\nINDEX 00 00:00:00\n" +
				"TRACK 02 AUDIO\nINDEX 01 01:00:00\n",
			check: func(t *testing.T, sheet *Sheet) {
				t.Helper()

				require.Len(t, sheet.Tracks, 1)
				assert.Equal(t, 2, sheet.Tracks[0].Number)
			},
		},
		{
			name: "malformed index is skipped",
			input: "FILE \"a.flac\" WAVE\nTRACK 01 AUDIO\nINDEX 01 00:00:00\n" +
				"TRACK 02 AUDIO\nINDEX 01 03:99:00\nTRACK 03 AUDIO\nINDEX 01 07:00:00\n",
			check: func(t *testing.T, sheet *Sheet) {
				t.Helper()

				require.Len(t, sheet.Tracks, 2)
				assert.Equal(t, 3, sheet.Tracks[1].Number)
			},
		},
		{
			name: "data tracks are skipped",
			input: "FILE \"game.bin\" BINARY\nTRACK 01 MODE1/2352\nTITLE \"Data\"\nINDEX 01 00:00:00\n" +
				"TRACK 02 AUDIO\nTITLE \"Theme\"\nINDEX 01 10:00:00\n",
			check: func(t *testing.T, sheet *Sheet) {
				t.Helper()

				require.Len(t, sheet.Tracks, 1)
				assert.Equal(t, "Theme", sheet.Tracks[0].Title)
			},
		},
		{
			name: "multiple files",
			input: "FILE \"01.flac\" WAVE\nTRACK 01 AUDIO\nINDEX 01 00:00:00\n" +
				"FILE \"02.flac\" WAVE\nTRACK 02 AUDIO\nINDEX 01 00:00:00\n",
			check: func(t *testing.T, sheet *Sheet) {
				t.Helper()

				assert.Equal(t, "01.flac", sheet.FileName)
				assert.Equal(t, 2, sheet.FileCount)
				assert.False(t, sheet.IsSingleFile())
			},
		},
		{
			name:  "minutes and seconds index",
			input: "FILE \"a.flac\" WAVE\nTRACK 01 AUDIO\nINDEX 01 02:30\n",
			check: func(t *testing.T, sheet *Sheet) {
				t.Helper()

				assert.Equal(t, NewTimestamp(2, 30, 0), sheet.Tracks[0].Start)
			},
		},
		{
			name: "album performer empty uses first track performer as album artist",
			input: "FILE \"a.flac\" WAVE\nTRACK 01 AUDIO\nPERFORMER \"Björk\"\nINDEX 01 00:00:00\n" +
				"TRACK 02 AUDIO\nINDEX 01 04:00:00\n",
			check: func(t *testing.T, sheet *Sheet) {
				t.Helper()

				assert.Empty(t, sheet.Tracks[1].Performer)
				assert.Equal(t, "Björk", sheet.AlbumArtist())
			},
		},
		{
			name:        "no tracks",
			input:       "PERFORMER \"Nobody\"\nTITLE \"Nothing\"\nFILE \"a.flac\" WAVE\n",
			expectError: ErrNoTracks,
		},
		{
			name:        "empty input",
			input:       "",
			expectError: ErrNoTracks,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sheet, err := Parse(context.Background(), tt.input)

			if tt.expectError != nil {
				require.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, sheet)

				return
			}

			require.NoError(t, err)
			tt.check(t, sheet)
		})
	}
}

func TestSheetTrackDuration(t *testing.T) {
	t.Parallel()

	sheet, err := Parse(context.Background(), fullSheet)
	require.NoError(t, err)

	duration, ok := sheet.TrackDuration(0)
	require.True(t, ok)
	assert.Equal(t, NewTimestamp(9, 22, 35), duration)

	duration, ok = sheet.TrackDuration(1)
	require.True(t, ok)
	assert.Equal(t, NewTimestamp(19, 8, 52)-NewTimestamp(9, 22, 35), duration)

	_, ok = sheet.TrackDuration(2)
	assert.False(t, ok, "the last track runs to the end of the file")

	_, ok = sheet.TrackDuration(-1)
	assert.False(t, ok)
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	decoder := defaultDecoder(t)
	dir := t.TempDir()

	content := encode(t, charmap.Windows1251,
		"PERFORMER \"Кино\"\nTITLE \"Группа крови\"\nFILE \"kino.flac\" WAVE\n"+
			"TRACK 01 AUDIO\nTITLE \"Группа крови\"\nINDEX 01 00:00:00\n"+
			"TRACK 02 AUDIO\nTITLE \"Закрой за мной дверь\"\nINDEX 01 04:46:00\n")

	cuePath := filepath.Join(dir, "kino.cue")
	require.NoError(t, os.WriteFile(cuePath, content, 0o600))

	sheet, err := ParseFile(context.Background(), cuePath, decoder)
	require.NoError(t, err)

	assert.Equal(t, "windows-1251", sheet.Encoding)
	assert.Equal(t, "Кино", sheet.Performer)
	require.Len(t, sheet.Tracks, 2)
	assert.Equal(t, "Закрой за мной дверь", sheet.Tracks[1].Title)

	_, err = ParseFile(context.Background(), filepath.Join(dir, "missing.cue"), decoder)
	require.ErrorIs(t, err, os.ErrNotExist)

	emptyPath := filepath.Join(dir, "empty.cue")
	require.NoError(t, os.WriteFile(emptyPath, []byte("REM nothing here\n"), 0o600))

	_, err = ParseFile(context.Background(), emptyPath, decoder)
	require.ErrorIs(t, err, ErrNoTracks)
}
