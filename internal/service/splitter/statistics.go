package splitter

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/cue-splitter/internal/logger"
	"github.com/oshokin/cue-splitter/internal/utils"
)

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % minutesInHour
	seconds := int(d.Seconds()) % secondsInMinute

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

// setAlbumsFound stores the number of albums found by the scan.
func (s *ServiceImpl) setAlbumsFound(count int) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.AlbumsFound = int64(count)
}

// incrementAlbumPending atomically increments the counter of albums a dry run would split.
func (s *ServiceImpl) incrementAlbumPending() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.AlbumsPending++
}

// incrementAlbumAlreadySplit atomically increments the already split albums counter.
func (s *ServiceImpl) incrementAlbumAlreadySplit() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.AlbumsAlreadySplit++
}

// incrementAlbumFailed atomically increments the failed albums counter.
func (s *ServiceImpl) incrementAlbumFailed() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.AlbumsFailed++
}

// incrementSourceDeleted atomically increments the deleted sources counter.
func (s *ServiceImpl) incrementSourceDeleted() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.SourcesDeleted++
}

// addAlbumResult accumulates the track counters of a split album.
func (s *ServiceImpl) addAlbumResult(result *AlbumResult, trackCount int) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.TracksExtracted += int64(result.Extracted)
	s.stats.TracksFailed += int64(result.Failed)
	s.stats.TotalBytesWritten += result.BytesWritten

	switch {
	case result.Failed > 0:
		s.stats.AlbumsFailed++
	case result.Extracted == trackCount:
		s.stats.AlbumsSplit++
	}
}

// PrintSplitSummary prints a formatted summary of session statistics.
func (s *ServiceImpl) PrintSplitSummary(ctx context.Context) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	stats := s.stats

	// If nothing was found, the listing already said so.
	if stats.AlbumsFound == 0 {
		return
	}

	// Check if the context was canceled (CTRL+C or timeout).
	wasInterrupted := ctx.Err() != nil

	s.printSummaryHeader(ctx, wasInterrupted, stats.IsDryRun)
	s.printAlbumStatistics(ctx, stats)
	s.printTrackStatistics(ctx, stats)
	s.printDataStatistics(ctx, stats)
	s.printSummaryFooter(ctx)
	s.printErrorDetails(ctx, stats)
	s.printFinalMessage(ctx, wasInterrupted, stats)
}

// printSummaryHeader prints the summary header.
func (s *ServiceImpl) printSummaryHeader(ctx context.Context, wasInterrupted, isDryRun bool) {
	logger.Info(ctx, "═══════════════════════════════════════════════════════════════")

	switch {
	case isDryRun:
		logger.Info(ctx, "                  DRY-RUN PREVIEW")
	case wasInterrupted:
		logger.Info(ctx, "             SPLIT SUMMARY (Interrupted)")
	default:
		logger.Info(ctx, "                      SPLIT SUMMARY")
	}

	logger.Info(ctx, "═══════════════════════════════════════════════════════════════")
}

// printAlbumStatistics prints album counters.
func (s *ServiceImpl) printAlbumStatistics(ctx context.Context, stats *SplitStatistics) {
	logger.Infof(ctx, "Albums:           %d found", stats.AlbumsFound)

	if stats.AlbumsSplit > 0 {
		logger.Infof(ctx, "  Split:           %d", stats.AlbumsSplit)
	}

	if stats.AlbumsPending > 0 {
		logger.Infof(ctx, "  Would Split:     %d", stats.AlbumsPending)
	}

	if stats.AlbumsAlreadySplit > 0 {
		logger.Infof(ctx, "  Already Split:   %d", stats.AlbumsAlreadySplit)
	}

	if stats.AlbumsFailed > 0 {
		logger.Infof(ctx, "  Failed:          %d", stats.AlbumsFailed)
	}

	if stats.SourcesDeleted > 0 {
		logger.Infof(ctx, "  Sources Deleted: %d", stats.SourcesDeleted)
	}
}

// printTrackStatistics prints track counters, only meaningful after extraction.
func (s *ServiceImpl) printTrackStatistics(ctx context.Context, stats *SplitStatistics) {
	totalTracks := stats.TracksExtracted + stats.TracksFailed
	if stats.IsDryRun || totalTracks == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Infof(ctx, "Tracks:           %d total processed", totalTracks)

	if stats.TracksExtracted > 0 {
		logger.Infof(ctx, "  Extracted:       %d", stats.TracksExtracted)
	}

	if stats.TracksFailed > 0 {
		logger.Infof(ctx, "  Failed:          %d", stats.TracksFailed)
	}

	successRate := float64(stats.TracksExtracted) / float64(totalTracks) * 100
	logger.Infof(ctx, "  Success Rate:    %.1f%%", successRate)
}

// printDataStatistics prints written bytes and elapsed time.
func (s *ServiceImpl) printDataStatistics(ctx context.Context, stats *SplitStatistics) {
	if stats.IsDryRun {
		return
	}

	if stats.TotalBytesWritten > 0 {
		logger.Info(ctx, "")
		logger.Infof(ctx, "Data Written:     %s", humanize.Bytes(utils.SafeInt64ToUint64(stats.TotalBytesWritten)))
	}

	if stats.StartTime.IsZero() || stats.EndTime.IsZero() {
		return
	}

	duration := stats.EndTime.Sub(stats.StartTime)

	// Only show if duration is meaningful (> 100ms).
	if duration > 100*time.Millisecond {
		logger.Infof(ctx, "Duration:         %s", formatDuration(duration))

		if stats.TotalBytesWritten > 0 {
			bytesPerSecond := float64(stats.TotalBytesWritten) / duration.Seconds()
			logger.Infof(ctx, "Average Speed:    %s/s", humanize.Bytes(uint64(bytesPerSecond)))
		}
	}
}

// printSummaryFooter prints the summary footer separator.
func (s *ServiceImpl) printSummaryFooter(ctx context.Context) {
	logger.Info(ctx, "═══════════════════════════════════════════════════════════════")
}

// groupErrors separates track errors from album errors for better display organization.
func (s *ServiceImpl) groupErrors(errors []SplitError) (trackErrors, albumErrors []SplitError) {
	for i := range errors {
		if errors[i].Category == ItemCategoryTrack {
			trackErrors = append(trackErrors, errors[i])
		} else {
			albumErrors = append(albumErrors, errors[i])
		}
	}

	return trackErrors, albumErrors
}

// printErrorDetails prints detailed error information if any errors occurred.
func (s *ServiceImpl) printErrorDetails(ctx context.Context, stats *SplitStatistics) {
	if len(stats.Errors) == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Errorf(ctx, "ERRORS ENCOUNTERED: %d", len(stats.Errors))

	trackErrors, albumErrors := s.groupErrors(stats.Errors)

	s.printAlbumErrors(ctx, albumErrors)
	s.printTrackErrors(ctx, trackErrors)

	logger.Info(ctx, "")
	logger.Info(ctx, "═══════════════════════════════════════════════════════════════")
}

// printAlbumErrors prints album-level errors.
func (s *ServiceImpl) printAlbumErrors(ctx context.Context, albumErrors []SplitError) {
	if len(albumErrors) == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Errorf(ctx, "ALBUM ERRORS:")

	for i := range albumErrors {
		logger.Info(ctx, "")
		logger.Errorf(ctx, "  [%d] %s: %s", i+1, albumErrors[i].Category, albumErrors[i].ItemTitle)
		logger.Errorf(ctx, "      Path: %s", albumErrors[i].ItemPath)
		logger.Errorf(ctx, "      Phase: %s", albumErrors[i].Phase)
		logger.Errorf(ctx, "      Error: %s", albumErrors[i].ErrorMessage)
	}
}

// printTrackErrors prints track-level errors grouped by album, in the order albums were processed.
func (s *ServiceImpl) printTrackErrors(ctx context.Context, trackErrors []SplitError) {
	if len(trackErrors) == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Errorf(ctx, "TRACK ERRORS:")

	var (
		order  []string
		groups = make(map[string][]SplitError)
	)

	for i := range trackErrors {
		key := trackErrors[i].ParentTitle
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}

		groups[key] = append(groups[key], trackErrors[i])
	}

	for _, key := range order {
		logger.Info(ctx, "")

		if key != "" {
			logger.Errorf(ctx, "  From album: %s", key)
		} else {
			logger.Errorf(ctx, "  From unknown album:")
		}

		for i, splitErr := range groups[key] {
			logger.Info(ctx, "")
			logger.Errorf(ctx, "    [%d] %s", i+1, splitErr.ItemTitle)
			logger.Errorf(ctx, "        Path: %s", splitErr.ItemPath)
			logger.Errorf(ctx, "        Phase: %s", splitErr.Phase)
			logger.Errorf(ctx, "        Error: %s", splitErr.ErrorMessage)
		}
	}
}

// printFinalMessage prints a helpful message based on split results.
func (s *ServiceImpl) printFinalMessage(ctx context.Context, wasInterrupted bool, stats *SplitStatistics) {
	if stats.IsDryRun {
		return
	}

	switch {
	case wasInterrupted:
		logger.Info(ctx, "")
		logger.Warn(ctx, "Split interrupted by user (CTRL+C).")

		if stats.TracksExtracted > 0 {
			logger.Infof(ctx, "Successfully extracted %d track(s) before interruption.", stats.TracksExtracted)
		}
	case len(stats.Errors) > 0:
		logger.Info(ctx, "")
		logger.Warnf(ctx, "%d error(s) occurred during split. See detailed error log above.", len(stats.Errors))
	case stats.TracksExtracted > 0:
		logger.Info(ctx, "")
		logger.Info(ctx, "All albums split successfully!")
	}
}
