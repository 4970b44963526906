package cue

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/oshokin/cue-splitter/internal/logger"
)

const (
	indexPregap = 0
	indexStart  = 1
)

// trackBuilder collects the commands of the track being parsed.
type trackBuilder struct {
	track    Track
	hasStart bool
	// skipped tracks (data tracks, malformed numbers) swallow their commands.
	skipped bool
}

type parser struct {
	ctx     context.Context //nolint:containedctx // The parser only lives for one Parse call.
	sheet   *Sheet
	current *trackBuilder
	lineNum int
}

// ParseFile reads, decodes and parses the CUE sheet at path.
func ParseFile(ctx context.Context, path string, decoder *Decoder) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cue file: %w", err)
	}

	sheet, err := ParseBytes(ctx, data, decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return sheet, nil
}

// ParseBytes decodes raw sheet bytes and parses them.
func ParseBytes(ctx context.Context, data []byte, decoder *Decoder) (*Sheet, error) {
	decoded, err := decoder.Decode(data)
	if err != nil {
		return nil, err
	}

	sheet, err := Parse(ctx, decoded.Text)
	if err != nil {
		return nil, err
	}

	sheet.Encoding = decoded.Encoding

	return sheet, nil
}

// Parse parses CUE sheet text.
// Parsing is best effort: unknown commands and malformed index positions are skipped.
// Only audio tracks with an INDEX 01 entry are kept; a sheet without any yields ErrNoTracks.
func Parse(ctx context.Context, text string) (*Sheet, error) {
	p := &parser{
		ctx:   ctx,
		sheet: &Sheet{Encoding: EncodingUTF8},
	}

	text = strings.TrimPrefix(text, "\ufeff")

	for line := range strings.Lines(text) {
		p.lineNum++
		p.parseLine(strings.TrimSpace(line))
	}

	p.finishTrack()

	if len(p.sheet.Tracks) == 0 {
		return nil, ErrNoTracks
	}

	return p.sheet, nil
}

func (p *parser) parseLine(line string) {
	keyword, rest := splitKeyword(line)

	switch strings.ToUpper(keyword) {
	case "":
		return
	case "FILE":
		p.parseFile(rest)
	case "TRACK":
		p.parseTrack(rest)
	case "REM":
		p.parseRemark(rest)
	default:
		p.parseCommand(strings.ToUpper(keyword), rest)
	}
}

func (p *parser) parseFile(rest string) {
	p.sheet.FileCount++

	if p.current != nil || p.sheet.FileName != "" {
		return
	}

	value, isQuoted := unquote(rest)
	if !isQuoted {
		// A bare name is followed by the file type.
		if fields := strings.Fields(rest); len(fields) > 1 {
			value = strings.Join(fields[:len(fields)-1], " ")
		}
	}

	p.sheet.FileName = value
}

func (p *parser) parseTrack(rest string) {
	p.finishTrack()

	fields := strings.Fields(rest)
	p.current = &trackBuilder{}

	if len(fields) < 2 || !strings.EqualFold(fields[1], "AUDIO") {
		logger.Debugf(p.ctx, "Line %d: skipping non-audio track %q", p.lineNum, rest)

		p.current.skipped = true

		return
	}

	number, err := strconv.Atoi(fields[0])
	if err != nil || number < 0 {
		logger.Debugf(p.ctx, "Line %d: skipping track with malformed number %q", p.lineNum, fields[0])

		p.current.skipped = true

		return
	}

	p.current.track.Number = number
}

func (p *parser) parseRemark(rest string) {
	field, value := splitKeyword(rest)
	value, _ = unquote(value)

	switch strings.ToUpper(field) {
	case "COMPOSER":
		if p.current != nil {
			p.current.track.Composer = value
		} else {
			p.sheet.Composer = value
		}
	case "GENRE":
		p.setAlbumField(&p.sheet.Genre, value)
	case "DATE":
		p.setAlbumField(&p.sheet.Date, value)
	case "DISCID":
		p.setAlbumField(&p.sheet.DiscID, value)
	case "DISCNUMBER":
		p.setAlbumField(&p.sheet.DiscNumber, value)
	case "TOTALDISCS":
		p.setAlbumField(&p.sheet.TotalDiscs, value)
	case "COMMENT":
		p.setAlbumField(&p.sheet.Comment, value)
	}
}

// setAlbumField ignores album-level remarks that appear inside a track.
func (p *parser) setAlbumField(field *string, value string) {
	if p.current == nil {
		*field = value
	}
}

func (p *parser) parseCommand(keyword, rest string) {
	value, _ := unquote(rest)

	if p.current == nil {
		switch keyword {
		case "TITLE":
			p.sheet.Title = value
		case "PERFORMER":
			p.sheet.Performer = value
		case "SONGWRITER":
			p.sheet.Songwriter = value
		case "CATALOG":
			p.sheet.Catalog = value
		}

		return
	}

	if p.current.skipped {
		return
	}

	switch keyword {
	case "TITLE":
		p.current.track.Title = value
	case "PERFORMER":
		p.current.track.Performer = value
	case "SONGWRITER":
		p.current.track.Songwriter = value
	case "ISRC":
		p.current.track.ISRC = value
	case "INDEX":
		p.parseIndex(rest)
	}
}

func (p *parser) parseIndex(rest string) {
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		logger.Debugf(p.ctx, "Line %d: malformed INDEX %q", p.lineNum, rest)

		return
	}

	number, err := strconv.Atoi(fields[0])
	if err != nil {
		logger.Debugf(p.ctx, "Line %d: malformed INDEX number %q", p.lineNum, fields[0])

		return
	}

	if number != indexPregap && number != indexStart {
		return
	}

	position, err := ParseTimestamp(fields[1])
	if err != nil {
		logger.Debugf(p.ctx, "Line %d: skipping INDEX %02d: %v", p.lineNum, number, err)

		return
	}

	if number == indexPregap {
		p.current.track.Pregap = position
		p.current.track.HasPregap = true

		return
	}

	p.current.track.Start = position
	p.current.hasStart = true
}

func (p *parser) finishTrack() {
	current := p.current
	if current == nil || current.skipped {
		return
	}

	if !current.hasStart {
		logger.Debugf(p.ctx, "Dropping track %d without INDEX 01", current.track.Number)

		return
	}

	track := current.track

	if track.Title == "" {
		track.Title = fmt.Sprintf("Track %d", track.Number)
	}

	if track.Performer == "" {
		track.Performer = p.sheet.Performer
	}

	p.sheet.Tracks = append(p.sheet.Tracks, &track)
}

// splitKeyword splits a line into its first word and the trimmed remainder.
func splitKeyword(line string) (string, string) {
	line = strings.TrimSpace(line)

	index := strings.IndexAny(line, " \t")
	if index < 0 {
		return line, ""
	}

	return line[:index], strings.TrimSpace(line[index+1:])
}

// unquote returns the text between the leading pair of double quotes,
// or the whole value when it is not quoted. An unclosed quote runs to the end of the value.
func unquote(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, `"`) {
		return value, false
	}

	value = value[1:]

	if end := strings.IndexByte(value, '"'); end >= 0 {
		return value[:end], true
	}

	return value, true
}
