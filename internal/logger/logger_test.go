package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestNew tests that New honors the requested level.
func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		level        zapcore.LevelEnabler
		debugEnabled bool
		infoEnabled  bool
	}{
		{
			name:         "debug level",
			level:        zapcore.DebugLevel,
			debugEnabled: true,
			infoEnabled:  true,
		},
		{
			name:         "error level",
			level:        zapcore.ErrorLevel,
			debugEnabled: false,
			infoEnabled:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core := New(tt.level).Desugar().Core()
			assert.Equal(t, tt.debugEnabled, core.Enabled(zapcore.DebugLevel))
			assert.Equal(t, tt.infoEnabled, core.Enabled(zapcore.InfoLevel))
		})
	}
}

// TestParseLogLevel tests the ParseLogLevel function.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected zapcore.Level
		valid    bool
	}{
		{input: "debug", expected: zapcore.DebugLevel, valid: true},
		{input: " WARN ", expected: zapcore.WarnLevel, valid: true},
		{input: "Error", expected: zapcore.ErrorLevel, valid: true},
		{input: "chatty", expected: zapcore.InfoLevel, valid: false},
		{input: "", expected: zapcore.InfoLevel, valid: false},
	}

	for _, tt := range tests {
		level, valid := ParseLogLevel(tt.input)
		assert.Equal(t, tt.expected, level, "input %q", tt.input)
		assert.Equal(t, tt.valid, valid, "input %q", tt.input)
	}
}

// TestSetLevel tests that the package-wide level drives loggers created without a level.
func TestSetLevel(t *testing.T) {
	// Not parallel: the level is process-wide.
	originalLevel := Level()
	defer SetLevel(originalLevel)

	core := New(nil).Desugar().Core()

	SetLevel(zapcore.DebugLevel)
	assert.Equal(t, zapcore.DebugLevel, Level())
	assert.True(t, core.Enabled(zapcore.DebugLevel))

	SetLevel(zapcore.ErrorLevel)
	assert.False(t, core.Enabled(zapcore.WarnLevel))
}

// TestSetLogger tests that context helpers write through the replaced logger.
func TestSetLogger(t *testing.T) {
	// Not parallel: the logger is process-wide.
	originalLogger := Logger()
	defer SetLogger(originalLogger)

	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core).Sugar())

	ctx := WithKV(context.Background(), "cue", "album.cue")

	Debugf(ctx, "parsed %d tracks", 12)
	Infof(ctx, "%d tracks extracted", 12)
	Warn(ctx, "keeping source")
	Errorf(ctx, "failed to delete '%s'", "album.flac")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "parsed 12 tracks", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "album.cue", entries[3].ContextMap()["cue"])
}

// TestWithKV tests that context fields accumulate without mutating the parent context.
func TestWithKV(t *testing.T) {
	t.Parallel()

	parent := WithKV(context.Background(), "album", "Kind of Blue")
	child := WithKV(parent, "track", 3)

	assert.Equal(t, []any{"album", "Kind of Blue"}, fieldsFromContext(parent))
	assert.Equal(t, []any{"album", "Kind of Blue", "track", 3}, fieldsFromContext(child))
	assert.Empty(t, fieldsFromContext(context.Background()))
}

// TestConsoleCore tests that context fields reach the file sink but not the console.
func TestConsoleCore(t *testing.T) {
	t.Parallel()

	consoleObserver, consoleLogs := observer.New(zapcore.DebugLevel)
	fileObserver, fileLogs := observer.New(zapcore.DebugLevel)

	logger := zap.New(zapcore.NewTee(newConsoleCore(consoleObserver), fileObserver)).Sugar()

	logger.With("cue", "lib/album.cue").Info(" 1. Test Album")
	logger.Infow("album split", "tracks", 3)

	console := consoleLogs.All()
	require.Len(t, console, 2)
	assert.Empty(t, console[0].Context)
	assert.Equal(t, int64(3), console[1].ContextMap()["tracks"])

	file := fileLogs.All()
	require.Len(t, file, 2)
	assert.Equal(t, "lib/album.cue", file[0].ContextMap()["cue"])
}

// TestNewFileCore tests that the rotating file sink receives entries.
func TestNewFileCore(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "cue-splitter.log")

	core := NewFileCore(zapcore.DebugLevel, logPath, 512)
	logger := New(zapcore.DebugLevel, core)

	logger.With("cue", "album.cue").Infow("album split", "tracks", 12)
	require.NoError(t, core.Sync())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"album split"`)
	assert.Contains(t, string(content), `"tracks":12`)
	assert.Contains(t, string(content), `"cue":"album.cue"`)
}
