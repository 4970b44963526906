package splitter

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oshokin/cue-splitter/internal/constants"
	"github.com/oshokin/cue-splitter/internal/logger"
)

// splitAlbum extracts every track of the album, running at most MaxConcurrentTracks ffmpeg processes.
// A failed track does not stop the others.
func (s *ServiceImpl) splitAlbum(ctx context.Context, album *Album) *AlbumResult {
	result := new(AlbumResult)

	if err := os.MkdirAll(album.OutputDir, constants.DefaultFolderPermissions); err != nil {
		logger.Errorf(ctx, "Failed to create output directory '%s': %v", album.OutputDir, err)
		s.recordError(&ErrorContext{
			Category:  ItemCategoryAlbum,
			ItemTitle: album.Title(),
			ItemPath:  album.OutputDir,
			Phase:     "creating output directory",
		}, err)

		result.Failed = len(album.Jobs)

		return result
	}

	bar := s.newProgressBar(len(album.Jobs))

	var (
		resultMutex sync.Mutex
		group       errgroup.Group
	)

	group.SetLimit(s.cfg.MaxConcurrentTracks)

	for _, job := range album.Jobs {
		// Stop scheduling new tracks after CTRL+C; running ones are killed through ctx.
		if ctx.Err() != nil {
			break
		}

		group.Go(func() error {
			// Tracks queued before CTRL+C are dropped.
			if ctx.Err() != nil {
				return nil
			}

			size, err := s.extractTrackSafely(ctx, album, job)

			resultMutex.Lock()
			defer resultMutex.Unlock()

			switch {
			case err == nil:
				result.Extracted++
				result.BytesWritten += size
			case ctx.Err() == nil:
				result.Failed++
			}

			if bar != nil {
				_ = bar.Add(1)
			}

			return nil
		})
	}

	_ = group.Wait()

	if bar != nil {
		_ = bar.Finish()
	}

	return result
}

// newProgressBar returns nil when progress output would interleave with other output.
func (s *ServiceImpl) newProgressBar(trackCount int) *progressbar.ProgressBar {
	if logger.Level() > zap.InfoLevel || s.cfg.MaxConcurrentTracks != 1 || trackCount == 0 {
		return nil
	}

	return progressbar.NewOptions(
		trackCount,
		progressbar.OptionSetWriter(s.progressOutput),
		progressbar.OptionSetDescription("    Splitting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(progressBarWidth),
		progressbar.OptionClearOnFinish(),
	)
}

// extractTrackSafely records a panic during extraction as a failed track.
func (s *ServiceImpl) extractTrackSafely(ctx context.Context, album *Album, job *TrackJob) (size int64, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		size = 0
		err = fmt.Errorf("%w: %v", ErrTrackPanicked, r)

		logger.Errorf(ctx, "Failed to extract track %d '%s': %v", job.Track.Number, job.Track.Title, err)

		errCtx := trackErrorContext(album, job)
		errCtx.Phase = "extracting track"
		s.recordError(errCtx, err)
	}()

	return s.extractTrack(ctx, album, job)
}

func trackErrorContext(album *Album, job *TrackJob) *ErrorContext {
	return &ErrorContext{
		Category:    ItemCategoryTrack,
		ItemTitle:   fmt.Sprintf("%02d. %s", job.Track.Number, job.Track.Title),
		ItemPath:    job.OutputPath,
		ParentTitle: album.Title(),
	}
}

// extractTrack runs ffmpeg into the job's .part file, finalizes its tags and moves it into place.
// It returns the size of the written track.
func (s *ServiceImpl) extractTrack(ctx context.Context, album *Album, job *TrackJob) (int64, error) {
	var (
		tempPath  = job.Request.Output
		errCtx    = trackErrorContext(album, job)
		succeeded bool
	)

	defer func() {
		if succeeded {
			return
		}

		if removeErr := os.Remove(tempPath); removeErr != nil && !os.IsNotExist(removeErr) {
			logger.Warnf(ctx, "Failed to clean up temporary file '%s': %v", tempPath, removeErr)
		}
	}()

	logger.Debugf(ctx, "Extracting track %d to '%s'", job.Track.Number, job.OutputPath)

	startTime := time.Now()

	if err := s.runner.Run(ctx, job.Request.Args()); err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}

		logger.Errorf(ctx, "Failed to extract track %d '%s': %v", job.Track.Number, job.Track.Title, err)

		errCtx.Phase = "extracting track"
		s.recordError(errCtx, err)

		return 0, err
	}

	err := s.tagProcessor.WriteTags(ctx, &WriteTagsRequest{
		TrackPath:                  tempPath,
		CoverPath:                  album.CoverPath,
		TrackTags:                  job.Tags,
		IsCoverEmbeddedToTrackTags: album.CoverPath != "",
	})
	if err != nil {
		logger.Errorf(ctx, "Failed to write tags to track %d '%s': %v", job.Track.Number, job.Track.Title, err)

		errCtx.Phase = "writing metadata tags"
		s.recordError(errCtx, err)

		return 0, err
	}

	if err = os.Rename(tempPath, job.OutputPath); err != nil {
		logger.Errorf(ctx, "Failed to rename '%s' to '%s': %v", tempPath, job.OutputPath, err)

		errCtx.Phase = "renaming temporary file"
		s.recordError(errCtx, err)

		return 0, err
	}

	succeeded = true

	var size int64
	if info, statErr := os.Stat(job.OutputPath); statErr == nil {
		size = info.Size()
	}

	logger.Debugf(ctx, "Track %d written in %s", job.Track.Number, formatDuration(time.Since(startTime)))

	return size, nil
}
