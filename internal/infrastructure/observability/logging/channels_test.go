package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestSilencedLoggerWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout")
	capture, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create capture file: %v", err)
	}

	orig := os.Stdout
	os.Stdout = capture
	defer func() {
		os.Stdout = orig
		capture.Close()
	}()

	logger, err := NewChanneledLogger(&LoggerConfig{DefaultLevel: slog.LevelDebug})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	logger.System().Error("should not appear")
	logger.Events().Info("should not appear")
	logger.Cache().Debug("should not appear")

	os.Stdout = orig
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read capture file: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("logger with all outputs disabled wrote %d bytes: %q", len(data), data)
	}
}

func TestConsoleLoggerWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdout")
	capture, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create capture file: %v", err)
	}

	orig := os.Stdout
	os.Stdout = capture
	defer func() {
		os.Stdout = orig
		capture.Close()
	}()

	logger, err := NewChanneledLogger(&LoggerConfig{
		OutputToConsole: true,
		JSONFormat:      true,
		DefaultLevel:    slog.LevelInfo,
	})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	logger.System().Info("startup message")

	os.Stdout = orig
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read capture file: %v", err)
	}
	if len(data) == 0 {
		t.Error("console logger wrote nothing")
	}
}
