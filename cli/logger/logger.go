package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Options struct {
	LogLevel  string `doc:"log from debug, info, warn or error"`
	LogFile   string `doc:"append logs to file, - or stderr"`
	LogFormat string `doc:"format logs as text or json"         default:"text"`
	LogSource bool   `doc:"log the source position of each record"`
}

var levels = map[string]slog.Level{ //nolint: gochecknoglobals,nolintlint
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// fallback is an option New could not use, reported once the logger exists.
type fallback struct {
	msg string
	err error
}

// New builds a logger from options. Options it cannot use are reset to
// their defaults, and each reset is logged as a warning.
func New(options *Options) *slog.Logger {
	var fallbacks []fallback
	opts := &slog.HandlerOptions{AddSource: options.LogSource}

	if options.LogLevel != "" {
		level, ok := levels[strings.ToLower(options.LogLevel)]
		if ok {
			opts.Level = level
		} else {
			fallbacks = append(fallbacks, fallback{msg: "could not parse logger level"})
			options.LogLevel = ""
		}
	}

	format := strings.ToLower(options.LogFormat)
	if format != "json" && format != "text" {
		fallbacks = append(fallbacks, fallback{msg: "could not parse logger format"})
		options.LogFormat, format = "text", "text"
	}

	output, err := open(options.LogFile)
	if err != nil {
		fallbacks = append(fallbacks, fallback{msg: "could not open logger file", err: err})
		options.LogFile, output = "", os.Stdout
	}

	var logger *slog.Logger
	switch {
	case output == nil:
		logger = slog.New(slog.DiscardHandler)
	case format == "json":
		logger = slog.New(slog.NewJSONHandler(output, opts))
	default:
		logger = slog.New(slog.NewTextHandler(output, opts))
	}

	for _, f := range fallbacks {
		if f.err != nil {
			logger.Warn(f.msg, "err", f.err)
		} else {
			logger.Warn(f.msg)
		}
	}
	return logger
}

// open returns a nil writer for [os.DevNull].
func open(file string) (io.Writer, error) {
	switch file {
	case "", "-":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	case os.DevNull:
		return nil, nil //nolint: nilnil // discard
	default:
		return os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	}
}
