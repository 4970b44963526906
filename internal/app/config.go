package app

import (
	"context"

	"github.com/oshokin/cue-splitter/internal/config"
	"github.com/oshokin/cue-splitter/internal/logger"
)

// ExecuteConfigInitCommand writes the default configuration file to path.
func ExecuteConfigInitCommand(ctx context.Context, path string) {
	if err := config.WriteDefaultConfig(path); err != nil {
		logger.Fatalf(ctx, "Failed to write configuration: %v", err)

		return
	}

	logger.Infof(ctx, "Default configuration written to '%s'", path)
	logger.Info(ctx, "Edit it and pass it with --config, or keep it in the working directory.")
}
