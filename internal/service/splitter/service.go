package splitter

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/oshokin/cue-splitter/internal/config"
	"github.com/oshokin/cue-splitter/internal/ffmpeg"
	"github.com/oshokin/cue-splitter/internal/logger"
)

// Service provides methods for splitting FLAC + CUE albums found in a directory tree.
type Service interface {
	// SplitDirectory finds, lists and (with execute enabled) splits every album under root.
	SplitDirectory(ctx context.Context, root string)
	// PrintSplitSummary prints a formatted summary of session statistics.
	PrintSplitSummary(ctx context.Context)
}

// ServiceImpl implements the album splitting service.
type ServiceImpl struct {
	// cfg contains the application configuration.
	cfg *config.Config
	// runner runs ffmpeg.
	runner ffmpeg.Runner
	// sheets parses and caches CUE sheets.
	sheets *SheetLoader
	// templateManager generates track filenames.
	templateManager TemplateManager
	// tagProcessor finalizes track tags and reads source durations.
	tagProcessor TagProcessor
	// prompter asks the user to confirm source deletion.
	prompter Prompter
	// progressOutput receives progress bars.
	progressOutput io.Writer
	// stats tracks statistics for the current session.
	stats *SplitStatistics
	// statsMutex protects concurrent access to statistics.
	statsMutex *sync.Mutex
}

// NewService creates a split service instance with dependency-injected components.
func NewService(
	cfg *config.Config,
	runner ffmpeg.Runner,
	sheets *SheetLoader,
	templateManager TemplateManager,
	tagProcessor TagProcessor,
	prompter Prompter,
) Service {
	return &ServiceImpl{
		cfg:             cfg,
		runner:          runner,
		sheets:          sheets,
		templateManager: templateManager,
		tagProcessor:    tagProcessor,
		prompter:        prompter,
		progressOutput:  os.Stderr,
		stats:           new(SplitStatistics),
		statsMutex:      new(sync.Mutex),
	}
}

// SplitDirectory finds, lists and (with execute enabled) splits every album under root.
func (s *ServiceImpl) SplitDirectory(ctx context.Context, root string) {
	s.statsMutex.Lock()
	s.stats.StartTime = time.Now()
	s.stats.IsDryRun = !s.cfg.Execute
	s.statsMutex.Unlock()

	defer func() {
		s.statsMutex.Lock()
		s.stats.EndTime = time.Now()
		s.statsMutex.Unlock()
	}()

	logger.Debugf(ctx, "Scanning '%s' for albums", root)

	pairs, err := s.FindPairs(ctx, root)
	if err != nil {
		logger.Errorf(ctx, "Failed to find albums: %v", err)

		return
	}

	if len(pairs) == 0 {
		logger.Info(ctx, "No FLAC + CUE pairs found.")

		return
	}

	albums := make([]*Album, 0, len(pairs))
	for _, pair := range pairs {
		albums = append(albums, s.PlanAlbum(ctx, root, pair))
	}

	s.setAlbumsFound(len(albums))
	s.printListingHeader(ctx, root, albums)

	for index, album := range albums {
		// Check if context was canceled (CTRL+C pressed) - stop immediately.
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.processAlbum(logger.WithKV(ctx, "cue", album.Pair.CuePath), index+1, album)
	}

	s.printListingFooter(ctx, albums)
}

func (s *ServiceImpl) processAlbum(ctx context.Context, index int, album *Album) {
	s.printAlbum(ctx, index, album)

	if !album.IsSplittable() {
		s.reportUnsplittableAlbum(ctx, album)
		logger.Info(ctx, "")

		return
	}

	if s.cfg.Verbose {
		s.printTracks(ctx, album)
	}

	var result *AlbumResult

	switch {
	case album.IsAlreadySplit:
		s.incrementAlbumAlreadySplit()

		if s.cfg.Execute {
			logger.Info(ctx, "    Already split, skipping")
		}
	case s.cfg.Execute:
		result = s.splitAlbum(ctx, album)
		s.reportAlbumResult(ctx, album, result)
	default:
		s.incrementAlbumPending()
	}

	if s.cfg.DeleteSource && ctx.Err() == nil {
		s.handleSourceDeletion(ctx, album, result)
	}

	logger.Info(ctx, "")
}

func (s *ServiceImpl) reportUnsplittableAlbum(ctx context.Context, album *Album) {
	s.incrementAlbumFailed()

	if album.ParseErr != nil {
		logger.Info(ctx, "    Could not parse CUE file, skipping")
		logger.Debugf(ctx, "Parse error: %v", album.ParseErr)
		s.recordError(&ErrorContext{
			Category:  ItemCategoryAlbum,
			ItemTitle: album.Folder,
			ItemPath:  album.Pair.CuePath,
			Phase:     "parsing cue sheet",
		}, album.ParseErr)

		return
	}

	logger.Warnf(ctx, "    Cannot split: %v", album.PlanErr)
	s.recordError(&ErrorContext{
		Category:  ItemCategoryAlbum,
		ItemTitle: album.Title(),
		ItemPath:  album.Pair.CuePath,
		Phase:     "planning tracks",
	}, album.PlanErr)
}

func (s *ServiceImpl) reportAlbumResult(ctx context.Context, album *Album, result *AlbumResult) {
	s.addAlbumResult(result, len(album.Jobs))

	switch {
	case result.Failed > 0:
		logger.Warnf(ctx, "    %d tracks (%d errors)", result.Extracted, result.Failed)
	case result.Extracted < len(album.Jobs):
		logger.Warnf(ctx, "    %d of %d tracks extracted before interruption", result.Extracted, len(album.Jobs))
	default:
		logger.Infof(ctx, "    %d tracks extracted", result.Extracted)
	}
}
