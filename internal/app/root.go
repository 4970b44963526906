package app

import (
	"context"

	"github.com/oshokin/cue-splitter/internal/config"
	"github.com/oshokin/cue-splitter/internal/cue"
	"github.com/oshokin/cue-splitter/internal/ffmpeg"
	"github.com/oshokin/cue-splitter/internal/logger"
	"github.com/oshokin/cue-splitter/internal/service/splitter"
)

// ExecuteRootCommand is the entry point for the application.
// It checks that ffmpeg is available, sets up the splitter components
// and processes every album found under directory.
func ExecuteRootCommand(ctx context.Context, cfg *config.Config, directory string) {
	if cfg.LogFile != "" {
		logger.SetLogger(logger.New(nil, logger.NewFileCore(nil, cfg.LogFile, config.DefaultMaxLogLength)))
	}

	runner, err := ffmpeg.NewRunner(cfg.FFmpegPath)
	if err != nil {
		fatalFFmpegMissing(ctx, err)
	}

	ffmpegVersion, err := runner.Version(ctx)
	if err != nil {
		fatalFFmpegMissing(ctx, err)
	}

	logger.Debugf(ctx, "Using '%s': %s", runner.Binary(), ffmpegVersion)

	decoder, err := cue.NewDecoder(cfg.CueEncodings)
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize CUE decoder: %v", err)
	}

	sheets, err := splitter.NewSheetLoader(decoder, cfg.CueCacheSize)
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize CUE cache: %v", err)
	}

	templateManager := splitter.NewTemplateManager(ctx, cfg)
	tagProcessor := splitter.NewTagProcessor()
	prompter := splitter.NewTerminalPrompter()

	s := splitter.NewService(cfg, runner, sheets, templateManager, tagProcessor, prompter)

	// Ensure statistics are ALWAYS printed, even on panic or os.Exit bypass.
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ctx, "Panic recovered: %v", r)
		}

		s.PrintSplitSummary(ctx)
	}()

	s.SplitDirectory(ctx, directory)
}

func fatalFFmpegMissing(ctx context.Context, err error) {
	logger.Errorf(ctx, "ffmpeg is not installed or not in PATH: %v", err)
	logger.Fatal(ctx, "Install: https://ffmpeg.org/download.html")
}
