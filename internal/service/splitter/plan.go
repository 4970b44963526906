package splitter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oshokin/cue-splitter/internal/constants"
	"github.com/oshokin/cue-splitter/internal/cue"
	"github.com/oshokin/cue-splitter/internal/ffmpeg"
	"github.com/oshokin/cue-splitter/internal/logger"
	"github.com/oshokin/cue-splitter/internal/utils"
)

// PlanAlbum parses the pair's sheet and computes everything needed to list and split it.
// Parse and plan failures are reported through Album.ParseErr and Album.PlanErr.
func (s *ServiceImpl) PlanAlbum(ctx context.Context, root string, pair AlbumPair) *Album {
	album := &Album{
		Pair:      pair,
		OutputDir: s.outputDir(root, pair.FLACPath),
		Folder:    utils.RelativePath(filepath.Dir(pair.FLACPath), root),
	}

	if info, err := os.Stat(pair.FLACPath); err == nil {
		album.SourceSize = info.Size()
	}

	album.Sheet, album.ParseErr = s.sheets.Load(ctx, pair.CuePath)
	if album.ParseErr != nil {
		return album
	}

	if duration, err := s.tagProcessor.ReadDuration(ctx, pair.FLACPath); err != nil {
		logger.Debugf(ctx, "Failed to read duration of '%s': %v", pair.FLACPath, err)
	} else {
		album.TotalDuration = duration
	}

	if album.PlanErr = validateSheet(album); album.PlanErr != nil {
		return album
	}

	album.CoverPath = s.findCover(filepath.Dir(pair.FLACPath))
	album.Jobs = s.buildJobs(ctx, album)

	for _, job := range album.Jobs {
		if filepath.Clean(job.OutputPath) == filepath.Clean(pair.FLACPath) {
			album.PlanErr = fmt.Errorf("%w: %s", ErrSourceIsTrack, job.OutputPath)
			album.Jobs = nil

			return album
		}
	}

	album.IsAlreadySplit = isAlreadySplit(album.Jobs)

	return album
}

// outputDir mirrors the FLAC directory under the output root when one is configured.
func (s *ServiceImpl) outputDir(root, flacPath string) string {
	flacDir := filepath.Dir(flacPath)

	if s.cfg.OutputPath == "" {
		return flacDir
	}

	absoluteRoot, rootErr := filepath.Abs(root)
	absoluteDir, dirErr := filepath.Abs(flacDir)

	if rootErr != nil || dirErr != nil {
		return s.cfg.OutputPath
	}

	relative, err := filepath.Rel(absoluteRoot, absoluteDir)
	if err != nil || relative == ".." || strings.HasPrefix(relative, ".."+string(filepath.Separator)) {
		return s.cfg.OutputPath
	}

	return filepath.Join(s.cfg.OutputPath, relative)
}

func validateSheet(album *Album) error {
	sheet := album.Sheet

	if !sheet.IsSingleFile() {
		return fmt.Errorf("%w (%d files)", ErrMultiFileSheet, sheet.FileCount)
	}

	for i := 1; i < len(sheet.Tracks); i++ {
		if sheet.Tracks[i].Start <= sheet.Tracks[i-1].Start {
			return fmt.Errorf("%w: track %d starts at %s, track %d at %s", ErrUnorderedTracks,
				sheet.Tracks[i-1].Number, sheet.Tracks[i-1].Start,
				sheet.Tracks[i].Number, sheet.Tracks[i].Start)
		}
	}

	if album.TotalDuration > 0 && sheet.LastStart().Duration() >= album.TotalDuration {
		return fmt.Errorf("%w: last track starts at %s, source is %s long", ErrTrackBeyondSource,
			sheet.LastStart(), formatDuration(album.TotalDuration))
	}

	return nil
}

func (s *ServiceImpl) buildJobs(ctx context.Context, album *Album) []*TrackJob {
	var (
		sheet      = album.Sheet
		trackCount = len(sheet.Tracks)
		jobs       = make([]*TrackJob, 0, trackCount)
	)

	for i, track := range sheet.Tracks {
		tags := trackTags(sheet, track, trackCount)

		filename := utils.SanitizeFilename(s.templateManager.GetTrackFilename(ctx, tags))
		if filename == "" || filename == "_" {
			filename = tags["trackNumberPad"]
		}

		filename = utils.SetFileExtension(filename, constants.ExtensionFLAC, false)
		outputPath := filepath.Join(album.OutputDir, filename)

		duration, hasDuration := sheet.TrackDuration(i)

		request := &ffmpeg.ExtractRequest{
			Input:            album.Pair.FLACPath,
			Output:           outputPath + constants.ExtensionPart,
			Start:            track.Start.Duration(),
			CompressionLevel: s.cfg.CompressionLevel,
			Metadata:         ffmpegMetadata(tags),
		}

		if hasDuration {
			request.Duration = duration.Duration()
		}

		jobs = append(jobs, &TrackJob{
			Track:       track,
			Filename:    filename,
			OutputPath:  outputPath,
			Duration:    duration,
			HasDuration: hasDuration,
			Request:     request,
			Tags:        tags,
		})
	}

	return jobs
}

// trackTags returns every key available to filename templates and the tag finalizer.
func trackTags(sheet *cue.Sheet, track *cue.Track, trackCount int) map[string]string {
	composer := track.Composer
	if composer == "" {
		composer = sheet.Composer
	}

	return map[string]string{
		"trackNumber":    strconv.Itoa(track.Number),
		"trackNumberPad": fmt.Sprintf("%0*d", trackNumberPaddingWidth, track.Number),
		"trackTitle":     track.Title,
		"trackArtist":    track.Performer,
		"trackCount":     strconv.Itoa(trackCount),
		"albumTitle":     sheet.Title,
		"albumArtist":    sheet.AlbumArtist(),
		"releaseDate":    sheet.Date,
		"releaseYear":    releaseYear(sheet.Date),
		"genre":          sheet.Genre,
		"discNumber":     sheet.DiscNumber,
		"totalDiscs":     sheet.TotalDiscs,
		"isrc":           track.ISRC,
		"composer":       composer,
		"catalog":        sheet.Catalog,
		"comment":        sheet.Comment,
	}
}

// ffmpegMetadata lists the tags written by ffmpeg itself; the rest are finalized afterwards.
func ffmpegMetadata(tags map[string]string) []ffmpeg.Tag {
	return []ffmpeg.Tag{
		{Key: "title", Value: tags["trackTitle"]},
		{Key: "artist", Value: tags["trackArtist"]},
		{Key: "album", Value: tags["albumTitle"]},
		{Key: "track", Value: tags["trackNumber"] + "/" + tags["trackCount"]},
		{Key: "album_artist", Value: tags["albumArtist"]},
		{Key: "date", Value: tags["releaseDate"]},
		{Key: "genre", Value: tags["genre"]},
		{Key: "disc", Value: tags["discNumber"]},
		{Key: "composer", Value: tags["composer"]},
	}
}

// releaseYear extracts the leading four-digit year of a REM DATE value.
func releaseYear(date string) string {
	const yearLength = 4

	date = strings.TrimSpace(date)
	if len(date) < yearLength {
		return ""
	}

	if _, err := strconv.Atoi(date[:yearLength]); err != nil {
		return ""
	}

	return date[:yearLength]
}

func isAlreadySplit(jobs []*TrackJob) bool {
	if len(jobs) == 0 {
		return false
	}

	for _, job := range jobs {
		if exists, _ := utils.IsFileExist(job.OutputPath); !exists {
			return false
		}
	}

	return true
}

// findCover returns the first configured cover image present in dir.
func (s *ServiceImpl) findCover(dir string) string {
	if !s.cfg.EmbedCover {
		return ""
	}

	for _, name := range s.cfg.CoverFilenames {
		path := filepath.Join(dir, name)
		if exists, _ := utils.IsFileExist(path); exists {
			return path
		}
	}

	return ""
}
