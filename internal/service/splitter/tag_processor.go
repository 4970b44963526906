package splitter

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
	flacstream "github.com/mewkiz/flac"

	"github.com/oshokin/cue-splitter/internal/logger"
)

// TagProcessor defines the interface for finishing split tracks and reading source durations.
type TagProcessor interface {
	// WriteTags writes the tags ffmpeg does not carry over and embeds the album cover.
	WriteTags(ctx context.Context, req *WriteTagsRequest) error
	// ReadDuration returns the length of a FLAC file from its STREAMINFO block.
	ReadDuration(ctx context.Context, path string) (time.Duration, error)
}

// WriteTagsRequest contains parameters for writing metadata to a split track.
type WriteTagsRequest struct {
	// TrackPath is the file path of the audio track.
	TrackPath string
	// CoverPath is the file path of the cover art image.
	CoverPath string
	// TrackTags contains metadata key-value pairs to write.
	TrackTags map[string]string
	// IsCoverEmbeddedToTrackTags indicates whether cover art is embedded in the audio file.
	IsCoverEmbeddedToTrackTags bool
}

// TagProcessorImpl provides the default implementation of TagProcessor.
type TagProcessorImpl struct{}

// imageMetadata contains image data and its MIME type.
type imageMetadata struct {
	// data contains the raw image bytes.
	data []byte
	// mimeType specifies the image format (e.g., "image/jpeg").
	mimeType string
}

// extractFLACCommentResult contains the result of extracting FLAC comment metadata.
type extractFLACCommentResult struct {
	// Comment is the FLAC Vorbis comment metadata block.
	Comment *flacvorbis.MetaDataBlockVorbisComment
	// Index is the index of the comment block in the FLAC file metadata (-1 if not found).
	Index int
}

// flacTag maps a Vorbis comment field to the track tag holding its value.
type flacTag struct {
	field  string
	tagKey string
}

// finalizedFLACTags are written by WriteTags in this order.
//
//nolint:gochecknoglobals // Immutable field mapping.
var finalizedFLACTags = []flacTag{
	{field: "TOTALTRACKS", tagKey: "trackCount"},
	{field: "ALBUMARTIST", tagKey: "albumArtist"},
	{field: "GENRE", tagKey: "genre"},
	{field: "DATE", tagKey: "releaseDate"},
	{field: "DISCNUMBER", tagKey: "discNumber"},
	{field: "TOTALDISCS", tagKey: "totalDiscs"},
	{field: "ISRC", tagKey: "isrc"},
	{field: "COMPOSER", tagKey: "composer"},
	{field: "CATALOGNUMBER", tagKey: "catalog"},
	{field: "COMMENT", tagKey: "comment"},
}

// NewTagProcessor creates a new TagProcessor instance.
func NewTagProcessor() TagProcessor {
	return new(TagProcessorImpl)
}

// WriteTags writes metadata to a FLAC track based on the provided request.
func (tp *TagProcessorImpl) WriteTags(ctx context.Context, req *WriteTagsRequest) error {
	if req.TrackPath == "" {
		return ErrEmptyTrackPath
	}

	var image *imageMetadata

	// If a cover path is provided and embedding is enabled, read the cover art.
	if req.CoverPath != "" && req.IsCoverEmbeddedToTrackTags {
		imageData, err := os.ReadFile(filepath.Clean(req.CoverPath))
		if err != nil {
			return err
		}

		image = &imageMetadata{
			data:     imageData,
			mimeType: mime.TypeByExtension(strings.ToLower(filepath.Ext(req.CoverPath))),
		}
	}

	f, err := parseFLACFile(req.TrackPath)
	if err != nil {
		return err
	}

	commentResult, err := tp.extractFLACComment(f)
	if err != nil {
		return err
	}

	tag := commentResult.Comment

	// If no existing comments are found, create a new metadata block.
	if tag == nil {
		tag = flacvorbis.New()
	}

	if err = tp.addFLACTags(tag, req.TrackTags); err != nil {
		return err
	}

	// Marshal the updated metadata and update the FLAC file's metadata blocks.
	tagMeta := tag.Marshal()
	if commentResult.Index >= 0 {
		f.Meta[commentResult.Index] = &tagMeta
	} else {
		f.Meta = append(f.Meta, &tagMeta)
	}

	tp.embedFLACCover(ctx, f, image)

	return f.Save(req.TrackPath)
}

// ReadDuration returns the length of a FLAC file from its STREAMINFO block.
// Zero means the encoder did not record the length.
func (tp *TagProcessorImpl) ReadDuration(_ context.Context, path string) (time.Duration, error) {
	stream, err := flacstream.Open(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNoStreamInfo, err)
	}

	defer func() {
		_ = stream.Close()
	}()

	info := stream.Info
	if info == nil || info.SampleRate == 0 || info.NSamples == 0 {
		return 0, nil
	}

	seconds := float64(info.NSamples) / float64(info.SampleRate)

	return time.Duration(seconds * float64(time.Second)), nil
}

// parseFLACFile reads a whole FLAC file for re-tagging.
// go-flac panics on a stream without audio frames, which is reported as ErrInvalidFLACStream.
func parseFLACFile(path string) (f *flac.File, err error) {
	defer func() {
		if r := recover(); r != nil {
			f = nil
			err = fmt.Errorf("%w: %v", ErrInvalidFLACStream, r)
		}
	}()

	return flac.ParseFile(filepath.Clean(path))
}

func (tp *TagProcessorImpl) extractFLACComment(f *flac.File) (*extractFLACCommentResult, error) {
	// Iterate through the metadata blocks to find the Vorbis comment block.
	for idx, meta := range f.Meta {
		if meta.Type != flac.VorbisComment {
			continue
		}

		comment, err := flacvorbis.ParseFromMetaDataBlock(*meta)
		if err != nil {
			return nil, err
		}

		return &extractFLACCommentResult{
			Comment: comment,
			Index:   idx,
		}, nil
	}

	// Return nil comment if no Vorbis comment block is found.
	return &extractFLACCommentResult{
		Comment: nil,
		Index:   -1,
	}, nil
}

// addFLACTags replaces the finalized fields, keeping everything else ffmpeg wrote.
func (tp *TagProcessorImpl) addFLACTags(tag *flacvorbis.MetaDataBlockVorbisComment, trackTags map[string]string) error {
	for _, t := range finalizedFLACTags {
		value := trackTags[t.tagKey]
		if value == "" {
			continue
		}

		removeFLACField(tag, t.field)

		if err := tag.Add(t.field, value); err != nil {
			return err
		}
	}

	return nil
}

func removeFLACField(tag *flacvorbis.MetaDataBlockVorbisComment, field string) {
	kept := tag.Comments[:0]

	for _, comment := range tag.Comments {
		name, _, _ := strings.Cut(comment, "=")
		if !strings.EqualFold(name, field) {
			kept = append(kept, comment)
		}
	}

	tag.Comments = kept
}

func (tp *TagProcessorImpl) embedFLACCover(ctx context.Context, f *flac.File, image *imageMetadata) {
	if image == nil {
		return
	}

	for _, meta := range f.Meta {
		if meta.Type == flac.Picture {
			return
		}
	}

	// Create a new FLAC picture block from the image data.
	picture, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "", image.data, image.mimeType)
	if err != nil {
		logger.Errorf(ctx, "Failed to embed image to FLAC: %v", err)

		return
	}

	// Add the picture block to the FLAC file's metadata.
	pictureMeta := picture.Marshal()
	f.Meta = append(f.Meta, &pictureMeta)
}
