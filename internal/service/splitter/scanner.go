package splitter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/oshokin/cue-splitter/internal/constants"
	"github.com/oshokin/cue-splitter/internal/cue"
	"github.com/oshokin/cue-splitter/internal/logger"
	"github.com/oshokin/cue-splitter/internal/utils"
)

// sheetResult is a cached parse outcome; failures are cached too.
type sheetResult struct {
	sheet *cue.Sheet
	err   error
}

// SheetLoader parses CUE sheets and keeps recent results in memory.
type SheetLoader struct {
	decoder *cue.Decoder
	cache   *lru.Cache[string, *sheetResult]
}

// NewSheetLoader creates a loader caching up to cacheSize parsed sheets.
func NewSheetLoader(decoder *cue.Decoder, cacheSize int) (*SheetLoader, error) {
	cache, err := lru.New[string, *sheetResult](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create cue cache: %w", err)
	}

	return &SheetLoader{
		decoder: decoder,
		cache:   cache,
	}, nil
}

// Load returns the parsed sheet at path.
func (l *SheetLoader) Load(ctx context.Context, path string) (*cue.Sheet, error) {
	if cached, ok := l.cache.Get(path); ok {
		return cached.sheet, cached.err
	}

	sheet, err := cue.ParseFile(ctx, path, l.decoder)
	if err == nil {
		logger.Debugf(ctx, "Parsed '%s' (%s, %d tracks)", path, sheet.Encoding, len(sheet.Tracks))
	}

	l.cache.Add(path, &sheetResult{sheet: sheet, err: err})

	return sheet, err
}

// FindPairs recursively finds CUE sheets under root and pairs each with its FLAC image.
// A FLAC image is paired with the first sheet (in path order) that claims it.
func (s *ServiceImpl) FindPairs(ctx context.Context, root string) ([]AlbumPair, error) {
	cuePaths, err := findCueFiles(ctx, root)
	if err != nil {
		return nil, err
	}

	var (
		pairs      = make([]AlbumPair, 0, len(cuePaths))
		claimed    = make(map[string]string, len(cuePaths))
		flacsByDir = make(map[string][]string)
	)

	for _, cuePath := range cuePaths {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		flacPath := s.findFLACForCue(ctx, cuePath, flacsByDir)
		if flacPath == "" {
			logger.Debugf(ctx, "No FLAC found for '%s'", cuePath)

			continue
		}

		if owner, ok := claimed[flacPath]; ok {
			logger.Warnf(ctx, "'%s' is already paired with '%s', skipping '%s'", flacPath, owner, cuePath)

			continue
		}

		claimed[flacPath] = cuePath
		pairs = append(pairs, AlbumPair{CuePath: cuePath, FLACPath: flacPath})
	}

	return pairs, nil
}

// findFLACForCue tries, in order: the same stem with a .flac extension,
// the file referenced by the sheet, and the only FLAC in the directory.
func (s *ServiceImpl) findFLACForCue(ctx context.Context, cuePath string, flacsByDir map[string][]string) string {
	var (
		dir  = filepath.Dir(cuePath)
		stem = strings.TrimSuffix(filepath.Base(cuePath), filepath.Ext(cuePath))
	)

	for _, extension := range []string{constants.ExtensionFLAC, strings.ToUpper(constants.ExtensionFLAC)} {
		candidate := filepath.Join(dir, stem+extension)
		if exists, _ := utils.IsFileExist(candidate); exists {
			return candidate
		}
	}

	if sheet, err := s.sheets.Load(ctx, cuePath); err == nil && sheet.FileName != "" {
		// Sheets written on Windows use backslashes.
		referenced := filepath.Join(dir, filepath.FromSlash(strings.ReplaceAll(sheet.FileName, `\`, "/")))
		if utils.HasExtension(referenced, constants.ExtensionFLAC) {
			if exists, _ := utils.IsFileExist(referenced); exists {
				return referenced
			}
		}
	}

	flacs, ok := flacsByDir[dir]
	if !ok {
		flacs = listFLACFiles(ctx, dir)
		flacsByDir[dir] = flacs
	}

	if len(flacs) == 1 {
		return flacs[0]
	}

	return ""
}

func findCueFiles(ctx context.Context, root string) ([]string, error) {
	var cuePaths []string

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable subdirectories are skipped, an unreadable root is fatal.
			if path == root {
				return walkErr
			}

			logger.Warnf(ctx, "Skipping '%s': %v", path, walkErr)

			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if !entry.IsDir() && utils.HasExtension(path, constants.ExtensionCUE) {
			cuePaths = append(cuePaths, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan '%s': %w", root, err)
	}

	slices.Sort(cuePaths)

	return cuePaths, nil
}

func listFLACFiles(ctx context.Context, dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warnf(ctx, "Failed to list '%s': %v", dir, err)
		}

		return nil
	}

	var flacs []string

	for _, entry := range entries {
		if entry.Type().IsRegular() && utils.HasExtension(entry.Name(), constants.ExtensionFLAC) {
			flacs = append(flacs, filepath.Join(dir, entry.Name()))
		}
	}

	return flacs
}
