package splitter

import (
	"bytes"
	"context"
	"html"
	"html/template"

	"github.com/oshokin/cue-splitter/internal/config"
	"github.com/oshokin/cue-splitter/internal/logger"
)

// TemplateManager defines the interface for generating track filenames.
type TemplateManager interface {
	// GetTrackFilename generates a filename (without extension) for a track based on its tags.
	GetTrackFilename(ctx context.Context, trackTags map[string]string) string
}

// TemplateManagerImpl implements the TemplateManager interface.
type TemplateManagerImpl struct {
	// trackFilenameTemplate is the template for track filenames.
	trackFilenameTemplate *template.Template
	// defaultTrackFilenameTemplate is the fallback template for track filenames.
	defaultTrackFilenameTemplate *template.Template
}

// NewTemplateManager creates and returns a new instance of TemplateManagerImpl.
// It initializes the template from the configuration and falls back to the default template if parsing fails.
func NewTemplateManager(ctx context.Context, cfg *config.Config) TemplateManager {
	defaultTrackFilenameTemplate := template.Must(
		template.New("defaultTrackFilenameTemplate").Parse(config.DefaultTrackFilenameTemplate))

	trackFilenameTemplate, err := template.New("trackFilenameTemplate").Parse(cfg.TrackFilenameTemplate)
	if err != nil {
		logger.Errorf(ctx, "Failed to parse track filename template, using default: %v", err)
	}

	return &TemplateManagerImpl{
		trackFilenameTemplate:        trackFilenameTemplate,
		defaultTrackFilenameTemplate: defaultTrackFilenameTemplate,
	}
}

// GetTrackFilename generates a filename for a track based on its tags.
func (s *TemplateManagerImpl) GetTrackFilename(ctx context.Context, trackTags map[string]string) string {
	var buffer bytes.Buffer

	if s.trackFilenameTemplate != nil {
		if err := s.trackFilenameTemplate.Execute(&buffer, trackTags); err != nil {
			logger.Errorf(ctx, "Failed to execute template, using default: %v", err)

			// Fall back to the default template if execution fails.
			buffer.Reset()
			_ = s.defaultTrackFilenameTemplate.Execute(&buffer, trackTags) //nolint:errcheck // Default template is always valid.
		}
	} else {
		// Use default template if custom template is nil.
		_ = s.defaultTrackFilenameTemplate.Execute(&buffer, trackTags) //nolint:errcheck // Default template is always valid.
	}

	// Unescape HTML entities in the generated filename.
	return html.UnescapeString(buffer.String())
}
