package logutil

import (
	"io"
	"os"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultLogFile = "trigger_engine.log"
	maxSizeMB      = 10
	maxArchives    = 3
)

type Options struct {
	EnableFileLogging bool
	Debug             bool
	// Path overrides DefaultLogFile.
	Path string
	// Stderr mirrors file logging to stderr.
	Stderr bool
}

// Setup configures the process logger. File logging rotates at 10MB and keeps
// 3 archives. When disabled, logs are discarded (keeps stdout clean) unless
// Stderr is set.
func Setup(opts Options) io.Closer {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
		DisableColors:   true,
	})
	log.SetReportCaller(opts.Debug)
	if opts.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	if !opts.EnableFileLogging {
		if opts.Stderr {
			log.SetOutput(os.Stderr)
		} else {
			log.SetOutput(io.Discard)
		}
		return io.NopCloser(nil)
	}

	path := opts.Path
	if path == "" {
		path = DefaultLogFile
	}
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxArchives,
		LocalTime:  true,
	}
	if opts.Stderr {
		log.SetOutput(io.MultiWriter(lj, os.Stderr))
	} else {
		log.SetOutput(lj)
	}
	log.WithFields(log.Fields{
		"path":        path,
		"max_size_mb": maxSizeMB,
		"max_backups": maxArchives,
		"debug":       opts.Debug,
	}).Info("File logging enabled")
	return lj
}

// SanitizeForLogging truncates text and escapes control characters so captured
// selections cannot flood or forge log lines.
func SanitizeForLogging(text string) string {
	const maxLogLength = 100
	if len(text) > maxLogLength {
		cut := maxLogLength
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}

	var b strings.Builder
	for _, r := range text {
		switch {
		case r == '\n' || r == '\r':
			b.WriteString("\\n")
		case r == '\t':
			b.WriteString("\\t")
		case r < 32 || r == 127:
			b.WriteByte('?')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
