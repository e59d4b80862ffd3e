package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"

	"github.com/ryosukesatoh/daily-brief/internal/config"
)

// New builds the process logger: console output always, plus a rotating file
// when logging.file is set.
func New(cfg config.LoggingConfig) arbor.ILogger {
	logger := arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{
		Type:             models.LogWriterTypeConsole,
		TimeFormat:       "2006-01-02 15:04:05",
		TextOutput:       true,
		DisableTimestamp: false,
	})

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to create log directory: %v\n", err)
		} else {
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   cfg.File,
				TimeFormat: "2006-01-02 15:04:05",
				MaxSize:    50 * 1024 * 1024,
				MaxBackups: 5,
				TextOutput: true,
			})
		}
	}

	return logger.WithLevelFromString(cfg.Level)
}
