// Package logging wires github.com/rs/zerolog into the pipeline: a
// console-pretty writer in development, structured JSON in production, and
// file rotation via gopkg.in/natefinch/lumberjack.v2 when a log file path is
// configured. Every logger it creates is tagged with a run_id so a single
// run's Stage-1/Stage-2/Repair lines can be correlated even when stdout is
// interleaved with other tooling.
package logging

import (
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Level is a zerolog level name ("debug", "info", "warn", "error").
	// Unrecognized or empty values fall back to "info".
	Level string

	// FilePath, when non-empty, rotates logs into that file via lumberjack
	// instead of writing to stdout.
	FilePath string

	// Pretty selects the console-pretty writer (development) over
	// structured JSON (production). Ignored when FilePath is set, since a
	// rotated log file is always written as JSON.
	Pretty bool
}

// New builds a zerolog.Logger per opts and tags it with a fresh run_id.
func New(opts Options) zerolog.Logger {
	level := parseLevel(opts.Level)

	var writer zerolog.LevelWriter
	switch {
	case opts.FilePath != "":
		writer = zerolog.MultiLevelWriter(&lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		})
	case opts.Pretty:
		writer = zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	default:
		writer = zerolog.MultiLevelWriter(os.Stdout)
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger()
}

func parseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
