package splitter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/oshokin/cue-splitter/internal/logger"
	"github.com/oshokin/cue-splitter/internal/utils"
)

// Prompter asks the user yes/no questions.
type Prompter interface {
	// Confirm prints question and returns the answer, or defaultYes when the answer is empty.
	Confirm(ctx context.Context, question string, defaultYes bool) (bool, error)
}

// TerminalPrompter reads answers from an input stream.
// A non-interactive input is never read and the default answer is used.
type TerminalPrompter struct {
	reader        *bufio.Reader
	output        io.Writer
	isInteractive bool
}

// NewTerminalPrompter creates a prompter bound to stdin and stdout.
func NewTerminalPrompter() *TerminalPrompter {
	return NewPrompter(os.Stdin, os.Stdout, term.IsTerminal(int(os.Stdin.Fd()))) //nolint:gosec // File descriptors fit in int.
}

// NewPrompter creates a prompter reading from input and writing questions to output.
func NewPrompter(input io.Reader, output io.Writer, isInteractive bool) *TerminalPrompter {
	return &TerminalPrompter{
		reader:        bufio.NewReader(input),
		output:        output,
		isInteractive: isInteractive,
	}
}

// Confirm prints question and reads a single line answer.
func (p *TerminalPrompter) Confirm(ctx context.Context, question string, defaultYes bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if !p.isInteractive {
		logger.Debugf(ctx, "Input is not a terminal, answering '%s' with the default", strings.TrimSpace(question))

		return defaultYes, nil
	}

	if _, err := fmt.Fprint(p.output, question); err != nil {
		return false, fmt.Errorf("failed to print prompt: %w", err)
	}

	// The read is abandoned on CTRL+C, no further questions are asked after that.
	lines := make(chan promptLine, 1)

	go func() {
		answer, err := p.reader.ReadString('\n')
		lines <- promptLine{answer: answer, err: err}
	}()

	var line promptLine

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line = <-lines:
	}

	if line.err != nil && line.answer == "" {
		if errors.Is(line.err, io.EOF) {
			return defaultYes, nil
		}

		return false, fmt.Errorf("failed to read answer: %w", line.err)
	}

	return parseAnswer(line.answer, defaultYes), nil
}

// promptLine is a line read from the prompt input.
type promptLine struct {
	answer string
	err    error
}

// parseAnswer interprets a reply. With a yes default anything but "n" confirms;
// with a no default only "y" confirms.
func parseAnswer(answer string, defaultYes bool) bool {
	answer = strings.ToLower(strings.TrimSpace(answer))

	if defaultYes {
		return answer != "n" && answer != "no"
	}

	return answer == "y" || answer == "yes"
}

// handleSourceDeletion removes the source FLAC image when the session allows it.
// The CUE sheet is always kept.
func (s *ServiceImpl) handleSourceDeletion(ctx context.Context, album *Album, result *AlbumResult) {
	if exists, _ := utils.IsFileExist(album.Pair.FLACPath); !exists {
		return
	}

	switch {
	case s.cfg.Execute:
		s.deleteAfterSplit(ctx, album, result)
	case album.IsAlreadySplit:
		confirmed := s.cfg.AssumeYes
		if !confirmed {
			confirmed = s.confirm(ctx, "    Delete original FLAC? [Y/n] ", true)
		}

		if confirmed && s.deleteSource(ctx, album) {
			logger.Info(ctx, "    Deleted")
		}
	default:
		if s.cfg.AssumeYes {
			logger.Info(ctx, "    Not yet split, keeping source")

			return
		}

		logger.Info(ctx, "    Not yet split")

		if s.confirm(ctx, "    Delete anyway? [y/N] ", false) && s.deleteSource(ctx, album) {
			logger.Info(ctx, "    Deleted")
		}
	}
}

// deleteAfterSplit deletes the source only when every track exists.
func (s *ServiceImpl) deleteAfterSplit(ctx context.Context, album *Album, result *AlbumResult) {
	isComplete := album.IsAlreadySplit ||
		(result != nil && result.Failed == 0 && result.Extracted == len(album.Jobs))

	if !isComplete {
		logger.Warn(ctx, "    Keeping source: not every track was extracted")

		return
	}

	if s.deleteSource(ctx, album) {
		logger.Info(ctx, "    Source deleted")
	}
}

func (s *ServiceImpl) confirm(ctx context.Context, question string, defaultYes bool) bool {
	confirmed, err := s.prompter.Confirm(ctx, question, defaultYes)
	if err != nil {
		logger.Debugf(ctx, "Prompt failed: %v", err)

		return false
	}

	return confirmed
}

func (s *ServiceImpl) deleteSource(ctx context.Context, album *Album) bool {
	if err := os.Remove(album.Pair.FLACPath); err != nil {
		logger.Errorf(ctx, "Failed to delete '%s': %v", album.Pair.FLACPath, err)
		s.recordError(&ErrorContext{
			Category:  ItemCategoryAlbum,
			ItemTitle: album.Title(),
			ItemPath:  album.Pair.FLACPath,
			Phase:     "deleting source",
		}, err)

		return false
	}

	s.incrementSourceDeleted()

	return true
}
