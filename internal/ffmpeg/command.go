package ffmpeg

import (
	"strconv"
	"time"
)

// Tag is a metadata key-value pair written into the output file.
type Tag struct {
	Key   string
	Value string
}

// ExtractRequest describes one track extraction.
type ExtractRequest struct {
	// Input is the source audio file.
	Input string
	// Output is the file written by ffmpeg.
	Output string
	// Start is the offset of the track inside Input.
	Start time.Duration
	// Duration is the track length; zero means until the end of Input.
	Duration time.Duration
	// CompressionLevel is the FLAC compression level.
	CompressionLevel int
	// Metadata is written in order; empty values are skipped.
	Metadata []Tag
}

// Args returns the ffmpeg arguments that perform the extraction.
// The output format is forced to FLAC so that temporary names with any extension work.
func (r *ExtractRequest) Args() []string {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", "error",
		"-i", r.Input,
		"-ss", formatSeconds(r.Start),
	}

	if r.Duration > 0 {
		args = append(args, "-t", formatSeconds(r.Duration))
	}

	args = append(args,
		"-c:a", "flac",
		"-compression_level", strconv.Itoa(r.CompressionLevel),
	)

	for _, tag := range r.Metadata {
		if tag.Value == "" {
			continue
		}

		args = append(args, "-metadata", tag.Key+"="+tag.Value)
	}

	return append(args, "-f", "flac", "-y", r.Output)
}

// formatSeconds renders a duration as seconds with millisecond precision.
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
