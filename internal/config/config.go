package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/cue-splitter/internal/constants"
	"github.com/oshokin/cue-splitter/internal/logger"
	"github.com/oshokin/cue-splitter/internal/utils"
)

// Config holds all configuration settings.
type Config struct {
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// LogFile is an optional path of a rotating JSON log file.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`
	// FFmpegPath is the ffmpeg binary name or path.
	FFmpegPath string `mapstructure:"ffmpeg_path" yaml:"ffmpeg_path"`
	// CompressionLevel is the FLAC compression level passed to ffmpeg (0-12).
	CompressionLevel int `mapstructure:"compression_level" yaml:"compression_level"`
	// TrackFilenameTemplate is the template for naming individual track files.
	TrackFilenameTemplate string `mapstructure:"track_filename_template" yaml:"track_filename_template"`
	// MaxConcurrentTracks is the maximum number of tracks of one album extracted simultaneously.
	MaxConcurrentTracks int `mapstructure:"max_concurrent_tracks" yaml:"max_concurrent_tracks"`
	// CueEncodings lists the charsets tried, in order, for CUE files that are not UTF-8.
	CueEncodings []string `mapstructure:"cue_encodings" yaml:"cue_encodings"`
	// EmbedCover indicates whether a cover image from the album folder is embedded into tracks.
	EmbedCover bool `mapstructure:"embed_cover" yaml:"embed_cover"`
	// CoverFilenames lists the cover image names looked up in the album folder.
	CoverFilenames []string `mapstructure:"cover_filenames" yaml:"cover_filenames"`
	// CueCacheSize is the number of parsed CUE sheets kept in memory.
	CueCacheSize int `mapstructure:"cue_cache_size" yaml:"cue_cache_size"`
	// Execute indicates whether tracks are actually extracted (set from flags).
	Execute bool `mapstructure:"-" yaml:"-"`
	// OutputPath is the root directory for split tracks (set from flags).
	OutputPath string `mapstructure:"-" yaml:"-"`
	// DeleteSource indicates whether source FLAC files are deleted after splitting (set from flags).
	DeleteSource bool `mapstructure:"-" yaml:"-"`
	// Verbose indicates whether per-track details are listed (set from flags).
	Verbose bool `mapstructure:"-" yaml:"-"`
	// AssumeYes answers every prompt with its default (set from flags).
	AssumeYes bool `mapstructure:"-" yaml:"-"`
	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level `mapstructure:"-" yaml:"-"`
}

const (
	// DefaultConfigFilename is the default name of the configuration file.
	DefaultConfigFilename = ".cue-splitter.yaml"

	// DefaultTrackFilenameTemplate is the default template for naming split track files.
	DefaultTrackFilenameTemplate = "{{.trackNumberPad}} - {{.trackTitle}}"

	// DefaultFFmpegPath is the ffmpeg binary looked up in PATH.
	DefaultFFmpegPath = "ffmpeg"

	// DefaultCompressionLevel is the FLAC compression level used when none is configured.
	DefaultCompressionLevel = 8

	// DefaultCueCacheSize is the default number of parsed CUE sheets kept in memory.
	DefaultCueCacheSize = 256

	// DefaultMaxLogLength is the default maximum size (in bytes) for log files.
	DefaultMaxLogLength = 1 * 1024 * 1024 // 1 MB

	// minCompressionLevel is the lowest compression level ffmpeg's FLAC encoder accepts.
	minCompressionLevel = 0
	// maxCompressionLevel is the highest compression level ffmpeg's FLAC encoder accepts.
	maxCompressionLevel = 12
)

// DefaultCueEncodings returns the fallback charsets tried for non-UTF-8 CUE files.
func DefaultCueEncodings() []string {
	return []string{"windows-1252", "windows-1251", "shift_jis"}
}

// DefaultCoverFilenames returns the cover image names looked up in album folders.
func DefaultCoverFilenames() []string {
	return []string{"cover.jpg", "folder.jpg", "front.jpg", "cover.png", "folder.png"}
}

// Static error definitions for better error handling.
var (
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrInvalidCompressionLevel indicates that the compression level is out of range.
	ErrInvalidCompressionLevel = errors.New("invalid compression_level")
	// ErrInvalidConcurrentTracks indicates that the concurrent tracks count is invalid.
	ErrInvalidConcurrentTracks = errors.New("max concurrent tracks must be a positive integer")
	// ErrInvalidCueCacheSize indicates that the cue cache size is invalid.
	ErrInvalidCueCacheSize = errors.New("cue cache size must be a positive integer")
	// ErrEmptyFilenameTemplate indicates that the track filename template is blank.
	ErrEmptyFilenameTemplate = errors.New("track filename template cannot be empty")
	// ErrEmptyFFmpegPath indicates that no ffmpeg binary is configured.
	ErrEmptyFFmpegPath = errors.New("ffmpeg path cannot be empty")
	// ErrConfigFileExists indicates that config init would overwrite an existing file.
	ErrConfigFileExists = errors.New("configuration file already exists")
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LogLevel:              zapcore.InfoLevel.String(),
		FFmpegPath:            DefaultFFmpegPath,
		CompressionLevel:      DefaultCompressionLevel,
		TrackFilenameTemplate: DefaultTrackFilenameTemplate,
		MaxConcurrentTracks:   1,
		CueEncodings:          DefaultCueEncodings(),
		EmbedCover:            false,
		CoverFilenames:        DefaultCoverFilenames(),
		CueCacheSize:          DefaultCueCacheSize,
	}
}

// LoadConfig loads configuration settings from a YAML file.
// A missing default file is not an error: built-in defaults are used instead.
// An explicitly named file must exist.
func LoadConfig(configFilename string) (*Config, error) {
	isExplicit := configFilename != ""
	if !isExplicit {
		configFilename = DefaultConfigFilename
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configFilename)
	v.SetConfigType("yaml")

	exists, err := utils.IsFileExist(configFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to check config file: %w", err)
	}

	if exists || isExplicit {
		if err = v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config from file: %w", err)
		}
	}

	var cfg Config
	if err = v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_file", defaults.LogFile)
	v.SetDefault("ffmpeg_path", defaults.FFmpegPath)
	v.SetDefault("compression_level", defaults.CompressionLevel)
	v.SetDefault("track_filename_template", defaults.TrackFilenameTemplate)
	v.SetDefault("max_concurrent_tracks", defaults.MaxConcurrentTracks)
	v.SetDefault("cue_encodings", defaults.CueEncodings)
	v.SetDefault("embed_cover", defaults.EmbedCover)
	v.SetDefault("cover_filenames", defaults.CoverFilenames)
	v.SetDefault("cue_cache_size", defaults.CueCacheSize)
}

// ValidateConfig checks the configuration for validity and sets derived fields.
func ValidateConfig(cfg *Config) error {
	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !isLogLevelCorrect {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	cfg.ParsedLogLevel = parsedLogLevel

	cfg.FFmpegPath = strings.TrimSpace(cfg.FFmpegPath)
	if cfg.FFmpegPath == "" {
		return ErrEmptyFFmpegPath
	}

	if cfg.CompressionLevel < minCompressionLevel || cfg.CompressionLevel > maxCompressionLevel {
		return fmt.Errorf("%w: must be between %d and %d",
			ErrInvalidCompressionLevel, minCompressionLevel, maxCompressionLevel)
	}

	if strings.TrimSpace(cfg.TrackFilenameTemplate) == "" {
		return ErrEmptyFilenameTemplate
	}

	if cfg.MaxConcurrentTracks <= 0 {
		return ErrInvalidConcurrentTracks
	}

	if cfg.CueCacheSize <= 0 {
		return ErrInvalidCueCacheSize
	}

	if len(cfg.CueEncodings) == 0 {
		cfg.CueEncodings = DefaultCueEncodings()
	}

	if cfg.OutputPath != "" {
		outputPath, err := utils.ExpandPath(cfg.OutputPath)
		if err != nil {
			return fmt.Errorf("failed to expand output path: %w", err)
		}

		cfg.OutputPath = outputPath
	}

	return nil
}

// WriteDefaultConfig writes the default configuration to path, refusing to overwrite an existing file.
func WriteDefaultConfig(path string) error {
	if path == "" {
		path = DefaultConfigFilename
	}

	exists, err := utils.IsFileExist(path)
	if err != nil {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	if exists {
		return fmt.Errorf("%w: %s", ErrConfigFileExists, path)
	}

	var node yaml.Node
	if err = node.Encode(Default()); err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}

	annotateDefaultConfig(&node)

	content, err := yaml.Marshal(&node)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err = os.MkdirAll(dir, constants.DefaultFolderPermissions); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err = os.WriteFile(path, content, constants.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// annotateDefaultConfig attaches a comment to every key of the encoded mapping node.
func annotateDefaultConfig(node *yaml.Node) {
	comments := map[string]string{
		"log_level":               "Logging verbosity: debug, info, warn, error.",
		"log_file":                "Optional rotating JSON log file.",
		"ffmpeg_path":             "ffmpeg binary name or path.",
		"compression_level":       "FLAC compression level, 0-12.",
		"track_filename_template": "Available: trackNumber, trackNumberPad, trackTitle, trackArtist, albumTitle, albumArtist, releaseYear, genre.",
		"max_concurrent_tracks":   "Number of ffmpeg processes run in parallel per album.",
		"cue_encodings":           "Charsets tried, in order, for CUE files that are not UTF-8.",
		"embed_cover":             "Embed a cover image from the album folder into every track.",
		"cover_filenames":         "Cover image names looked up in the album folder.",
		"cue_cache_size":          "Number of parsed CUE sheets kept in memory.",
	}

	if node.Kind != yaml.MappingNode {
		return
	}

	// Key-value pairs are stored as alternating nodes.
	for i := 0; i < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		if comment, ok := comments[keyNode.Value]; ok {
			keyNode.HeadComment = comment
		}
	}
}
