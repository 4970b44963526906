package splitter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oshokin/cue-splitter/internal/config"
)

// TestNewTemplateManager tests the NewTemplateManager function.
func TestNewTemplateManager(t *testing.T) {
	t.Parallel()

	manager := NewTemplateManager(context.Background(), &config.Config{
		TrackFilenameTemplate: config.DefaultTrackFilenameTemplate,
	})

	assert.NotNil(t, manager)
	assert.Implements(t, (*TemplateManager)(nil), manager)
}

func TestTemplateManagerImpl_GetTrackFilename(t *testing.T) {
	t.Parallel()

	trackTags := map[string]string{
		"trackNumber":    "7",
		"trackNumberPad": "07",
		"trackTitle":     "Blue in Green",
		"trackArtist":    "Miles Davis",
		"albumTitle":     "Kind of Blue",
		"releaseYear":    "1959",
		"discNumber":     "1",
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{
			name:     "default template",
			template: config.DefaultTrackFilenameTemplate,
			want:     "07 - Blue in Green",
		},
		{
			name:     "artist and title",
			template: "{{.trackNumberPad}}. {{.trackArtist}} - {{.trackTitle}}",
			want:     "07. Miles Davis - Blue in Green",
		},
		{
			name:     "disc prefix",
			template: "{{.discNumber}}-{{.trackNumberPad}} {{.trackTitle}}",
			want:     "1-07 Blue in Green",
		},
		{
			name:     "invalid template falls back to default",
			template: "{{.trackTitle",
			want:     "07 - Blue in Green",
		},
		{
			name:     "execution error falls back to default",
			template: "{{index .trackTitle 100}}",
			want:     "07 - Blue in Green",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			manager := NewTemplateManager(ctx, &config.Config{TrackFilenameTemplate: tt.template})

			assert.Equal(t, tt.want, manager.GetTrackFilename(ctx, trackTags))
		})
	}
}

func TestTemplateManagerImpl_UnescapesEntities(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	manager := NewTemplateManager(ctx, &config.Config{TrackFilenameTemplate: "{{.trackTitle}}"})

	result := manager.GetTrackFilename(ctx, map[string]string{"trackTitle": `Tom & Jerry's "Theme" <live>`})
	assert.Equal(t, `Tom & Jerry's "Theme" <live>`, result)
}
