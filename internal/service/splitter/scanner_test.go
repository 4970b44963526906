package splitter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/cue-splitter/internal/cue"
)

func TestFindPairs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files map[string]string
		want  []AlbumPair
	}{
		{
			name: "same stem",
			files: map[string]string{
				"a/Album.cue":  testCue,
				"a/Album.flac": "",
				"a/other.flac": "",
			},
			want: []AlbumPair{{CuePath: "a/Album.cue", FLACPath: "a/Album.flac"}},
		},
		{
			name: "upper case extensions",
			files: map[string]string{
				"a/Album.CUE":  testCue,
				"a/Album.FLAC": "",
			},
			want: []AlbumPair{{CuePath: "a/Album.CUE", FLACPath: "a/Album.FLAC"}},
		},
		{
			name: "referenced by FILE",
			files: map[string]string{
				"a/rip.cue":    testCue,
				"a/album.flac": "",
				"a/bonus.flac": "",
			},
			want: []AlbumPair{{CuePath: "a/rip.cue", FLACPath: "a/album.flac"}},
		},
		{
			name: "only FLAC in folder",
			files: map[string]string{
				"a/rip.cue":    "FILE \"missing.wav\" WAVE\n  TRACK 01 AUDIO\n    INDEX 01 00:00:00\n",
				"a/image.flac": "",
			},
			want: []AlbumPair{{CuePath: "a/rip.cue", FLACPath: "a/image.flac"}},
		},
		{
			name: "ambiguous folder",
			files: map[string]string{
				"a/rip.cue":  "FILE \"missing.wav\" WAVE\n  TRACK 01 AUDIO\n    INDEX 01 00:00:00\n",
				"a/one.flac": "",
				"a/two.flac": "",
			},
			want: []AlbumPair{},
		},
		{
			name: "FLAC claimed once",
			files: map[string]string{
				"a/album.cue":      testCue,
				"a/album.flac":     "",
				"a/album (v2).cue": testCue,
			},
			want: []AlbumPair{{CuePath: "a/album (v2).cue", FLACPath: "a/album.flac"}},
		},
		{
			name: "sorted across folders",
			files: map[string]string{
				"b/album.cue":  testCue,
				"b/album.flac": "",
				"a/album.cue":  testCue,
				"a/album.flac": "",
				"a/notes.txt":  "",
			},
			want: []AlbumPair{
				{CuePath: "a/album.cue", FLACPath: "a/album.flac"},
				{CuePath: "b/album.cue", FLACPath: "b/album.flac"},
			},
		},
		{
			name:  "nothing found",
			files: map[string]string{"a/album.flac": ""},
			want:  []AlbumPair{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			setup := newTestSplitSetup(t)

			for name, content := range tt.files {
				writeFile(t, filepath.Join(setup.root, filepath.FromSlash(name)), []byte(content))
			}

			pairs, err := setup.service.FindPairs(context.Background(), setup.root)
			require.NoError(t, err)

			want := make([]AlbumPair, 0, len(tt.want))
			for _, pair := range tt.want {
				want = append(want, AlbumPair{
					CuePath:  filepath.Join(setup.root, filepath.FromSlash(pair.CuePath)),
					FLACPath: filepath.Join(setup.root, filepath.FromSlash(pair.FLACPath)),
				})
			}

			assert.Equal(t, want, pairs)
		})
	}
}

func TestFindPairs_MissingRoot(t *testing.T) {
	t.Parallel()

	setup := newTestSplitSetup(t)

	_, err := setup.service.FindPairs(context.Background(), filepath.Join(setup.root, "missing"))
	require.Error(t, err)
}

func TestFindPairs_Canceled(t *testing.T) {
	t.Parallel()

	setup := newTestSplitSetup(t)
	writeTestAlbum(t, setup.root)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := setup.service.FindPairs(ctx, setup.root)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSheetLoader_Load(t *testing.T) {
	t.Parallel()

	decoder, err := cue.NewDecoder(nil)
	require.NoError(t, err)

	loader, err := NewSheetLoader(decoder, 2)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "album.cue")
	writeFile(t, path, []byte(testCue))

	sheet, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Test Album", sheet.Title)

	// A cached result survives changes on disk.
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	cached, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Same(t, sheet, cached)
}

func TestSheetLoader_CachesFailures(t *testing.T) {
	t.Parallel()

	decoder, err := cue.NewDecoder(nil)
	require.NoError(t, err)

	loader, err := NewSheetLoader(decoder, 2)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "empty.cue")
	writeFile(t, path, []byte("TITLE \"No Tracks\"\n"))

	_, err = loader.Load(context.Background(), path)
	require.ErrorIs(t, err, cue.ErrNoTracks)

	writeFile(t, path, []byte(testCue))

	_, err = loader.Load(context.Background(), path)
	require.ErrorIs(t, err, cue.ErrNoTracks)
}

func TestNewSheetLoader_InvalidSize(t *testing.T) {
	t.Parallel()

	_, err := NewSheetLoader(nil, 0)
	require.Error(t, err)
}
