package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Setup installs a JSON logger on stdout and returns its handler so it can
// later be combined with the database sink.
func Setup(level string) slog.Handler {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	slog.SetDefault(slog.New(handler))
	return handler
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// AttachDatabase fans ERROR+ records out to system_logs and starts the
// retention cleanup. The returned func flushes pending records and stops
// both background loops.
func AttachDatabase(stdout slog.Handler, db *gorm.DB) func() {
	pg := NewPGHandler(db)
	slog.SetDefault(slog.New(NewMultiHandler(stdout, pg)))

	done := make(chan struct{})
	StartCleanup(db, 30*24*time.Hour, done)

	return func() {
		close(done)
		pg.Stop()
	}
}
