// Package logger configures the process-wide zerolog logger and writes
// JSON artifacts for the demo pipeline.
package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup installs a console writer on the global logger. level is one of
// zerolog's level strings ("debug", "info", ...); unknown values fall back
// to info.
func Setup(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// InitLogs clears previously written .json artifacts from the directory,
// creating it if needed.
func InitLogs(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	files, err := os.ReadDir(path)
	if err != nil {
		return err
	}
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".json") {
			_ = os.Remove(path + "/" + f.Name())
		}
	}
	return nil
}

// LogJSON writes data as indented JSON to <path>/<id>.json.
func LogJSON(path, id string, data interface{}) error {
	file := fmt.Sprintf("%s/%s.json", path, id)
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, bytes, 0o644)
}
