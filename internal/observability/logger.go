package observability

import (
	"io"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewFileLogger returns a structured logger appending to the file at path,
// with size-based rotation, plus a closer for the underlying sink.
func NewFileLogger(path, level string) (*log.Logger, io.Closer) {
	sink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
	}

	logger := log.NewWithOptions(sink, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
		Level:           parseLevel(level),
	})

	return logger, sink
}

func parseLevel(level string) log.Level {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return log.InfoLevel
	}
	return parsed
}
