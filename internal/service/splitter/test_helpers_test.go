package splitter

import (
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/oshokin/cue-splitter/internal/config"
	"github.com/oshokin/cue-splitter/internal/cue"
	mock_ffmpeg "github.com/oshokin/cue-splitter/internal/ffmpeg/mocks"
)

const (
	// testSampleRate is the sample rate written into fixture STREAMINFO blocks.
	testSampleRate = 44100
	// testAlbumSeconds is the length of the fixture source image.
	testAlbumSeconds = 600

	// testCue describes a three track album stored in album.flac.
	testCue = `REM GENRE Rock
REM DATE 1999-05-01
PERFORMER "Test Artist"
TITLE "Test Album"
FILE "album.flac" WAVE
  TRACK 01 AUDIO
    TITLE "First"
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    TITLE "Second"
    INDEX 01 03:00:00
  TRACK 03 AUDIO
    TITLE "Third"
    PERFORMER "Guest Artist"
    INDEX 01 06:30:37
`
)

// testSplitSetup encapsulates common test dependencies and configuration.
type testSplitSetup struct {
	ctrl       *gomock.Controller
	mockRunner *mock_ffmpeg.MockRunner
	prompter   *fakePrompter
	service    *ServiceImpl
	config     *config.Config
	root       string
}

// newTestSplitSetup creates a service backed by a mocked ffmpeg and the real tag processor.
func newTestSplitSetup(t *testing.T, configOverrides ...func(*config.Config)) *testSplitSetup {
	t.Helper()

	cfg := config.Default()
	for _, override := range configOverrides {
		override(cfg)
	}

	decoder, err := cue.NewDecoder(cfg.CueEncodings)
	require.NoError(t, err)

	sheets, err := NewSheetLoader(decoder, cfg.CueCacheSize)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	mockRunner := mock_ffmpeg.NewMockRunner(ctrl)
	prompter := new(fakePrompter)

	service, ok := NewService(
		cfg,
		mockRunner,
		sheets,
		NewTemplateManager(context.Background(), cfg),
		NewTagProcessor(),
		prompter,
	).(*ServiceImpl)
	require.True(t, ok)

	service.progressOutput = io.Discard

	return &testSplitSetup{
		ctrl:       ctrl,
		mockRunner: mockRunner,
		prompter:   prompter,
		service:    service,
		config:     cfg,
		root:       t.TempDir(),
	}
}

// expectExtractions makes the mocked ffmpeg write a small valid FLAC file to the output argument.
func (s *testSplitSetup) expectExtractions(times int) {
	s.mockRunner.EXPECT().
		Run(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args []string) error {
			return os.WriteFile(args[len(args)-1], flacBytes(testSampleRate, testSampleRate*10), 0o600)
		}).
		Times(times)
}

// fakePrompter returns queued answers and records the questions asked.
type fakePrompter struct {
	answers   []bool
	questions []string
	err       error
}

func (p *fakePrompter) Confirm(_ context.Context, question string, defaultYes bool) (bool, error) {
	p.questions = append(p.questions, question)

	if p.err != nil {
		return false, p.err
	}

	if len(p.answers) == 0 {
		return defaultYes, nil
	}

	answer := p.answers[0]
	p.answers = p.answers[1:]

	return answer, nil
}

// streamInfoLength is the size of a STREAMINFO block body.
const streamInfoLength = 34

// flacBytes builds a stereo 16 bit FLAC stream: a STREAMINFO block followed by a frame header.
func flacBytes(sampleRate, totalSamples uint64) []byte {
	return append(streamInfoOnlyBytes(sampleRate, totalSamples), 0xFF, 0xF8, 0x69, 0x08)
}

// streamInfoOnlyBytes builds a FLAC stream that ends right after its STREAMINFO block.
func streamInfoOnlyBytes(sampleRate, totalSamples uint64) []byte {
	info := make([]byte, streamInfoLength)

	binary.BigEndian.PutUint16(info[0:], 4096)
	binary.BigEndian.PutUint16(info[2:], 4096)

	info[10] = byte(sampleRate >> 12)
	info[11] = byte(sampleRate >> 4)
	info[12] = byte(sampleRate<<4) | 0x02
	info[13] = 0xF0 | byte(totalSamples>>32)&0x0F
	binary.BigEndian.PutUint32(info[14:], uint32(totalSamples))

	data := []byte("fLaC")
	data = append(data, 0x80, 0x00, 0x00, streamInfoLength)

	return append(data, info...)
}

// writeFile creates path with its parent directories.
func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

// writeTestAlbum writes album.cue and a ten minute album.flac into dir and returns their paths.
func writeTestAlbum(t *testing.T, dir string) AlbumPair {
	t.Helper()

	pair := AlbumPair{
		CuePath:  filepath.Join(dir, "album.cue"),
		FLACPath: filepath.Join(dir, "album.flac"),
	}

	writeFile(t, pair.CuePath, []byte(testCue))
	writeFile(t, pair.FLACPath, flacBytes(testSampleRate, testSampleRate*testAlbumSeconds))

	return pair
}
