package splitter

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/cue-splitter/internal/logger"
	"github.com/oshokin/cue-splitter/internal/utils"
)

// printListingHeader prints the number of albums found and, in a dry run, how many are left to split.
func (s *ServiceImpl) printListingHeader(ctx context.Context, root string, albums []*Album) {
	name := root
	if absolute, err := filepath.Abs(root); err == nil {
		name = absolute
	}

	logger.Info(ctx, "")
	logger.Infof(ctx, "Found %d album(s) in %s/", len(albums), filepath.Base(name))

	done, pending := countAlbums(albums)
	if done > 0 && !s.cfg.Execute {
		logger.Infof(ctx, "%d already split, %d pending", done, pending)
	}

	logger.Info(ctx, "")
}

// printListingFooter prints the closing line of the listing.
func (s *ServiceImpl) printListingFooter(ctx context.Context, albums []*Album) {
	if s.cfg.Execute {
		logger.Info(ctx, "Done.")

		return
	}

	if _, pending := countAlbums(albums); pending > 0 {
		logger.Infof(ctx, "Dry run complete. Run with --execute to split %d album(s).", pending)

		return
	}

	logger.Info(ctx, "All albums already split.")
}

// countAlbums returns the number of already split albums and of albums that can still be split.
func countAlbums(albums []*Album) (done, pending int) {
	for _, album := range albums {
		switch {
		case album.IsAlreadySplit:
			done++
		case album.IsSplittable():
			pending++
		}
	}

	return done, pending
}

// printAlbum prints the album lines of the listing.
func (s *ServiceImpl) printAlbum(ctx context.Context, index int, album *Album) {
	if album.Sheet == nil {
		logger.Infof(ctx, "%2d. %s/", index, album.Folder)

		return
	}

	title := album.Title()
	if album.IsAlreadySplit && !s.cfg.Execute {
		title += " (already split)"
	}

	logger.Infof(ctx, "%2d. %s", index, title)
	logger.Infof(ctx, "    %s | %d tracks | ~%s | %s",
		album.Artist(),
		len(album.Sheet.Tracks),
		albumDuration(album),
		humanize.Bytes(utils.SafeInt64ToUint64(album.SourceSize)))
	logger.Infof(ctx, "    %s/", album.Folder)
}

// printTracks prints one line per track with its start and length.
func (s *ServiceImpl) printTracks(ctx context.Context, album *Album) {
	for i, track := range album.Sheet.Tracks {
		logger.Infof(ctx, "        %2d. %s | %s | %s", track.Number, track.Title, track.Start, trackLength(album, i))
	}
}

// albumDuration returns the source length, or the last track start when the length is unknown.
// Estimates under a minute are shown as unknown.
func albumDuration(album *Album) string {
	duration := album.TotalDuration
	if duration == 0 && album.Sheet != nil {
		duration = album.Sheet.LastStart().Duration()
	}

	if duration < time.Minute {
		return unknownDuration
	}

	return formatDuration(duration.Truncate(time.Second))
}

// trackLength returns the length of the i-th track as minutes and seconds.
func trackLength(album *Album, i int) string {
	var seconds int

	if duration, ok := album.Sheet.TrackDuration(i); ok {
		seconds = int(duration.Seconds())
	} else {
		remaining := album.TotalDuration - album.Sheet.Tracks[i].Start.Duration()
		if album.TotalDuration == 0 || remaining <= 0 {
			return unknownDuration
		}

		seconds = int(remaining.Seconds())
	}

	return fmt.Sprintf("%dm %ds", seconds/secondsInMinute, seconds%secondsInMinute)
}
