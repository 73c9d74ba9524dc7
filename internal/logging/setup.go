package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

type Options struct {
	Debug   bool
	Verbose bool
	Quiet   bool
	Output  io.Writer
}

// New returns a logger with the prefixed text formatter already applied.
func New() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&prefixed.TextFormatter{
		ForceFormatting: true,
		FullTimestamp:   true,
	})
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)
	return logger
}

func Configure(logger *logrus.Logger, opts Options) {
	if logger == nil {
		return
	}
	target := opts.Output
	if target == nil {
		target = os.Stderr
	}
	logger.SetOutput(target)

	if opts.Debug {
		logger.SetLevel(logrus.DebugLevel)
		return
	}

	if opts.Quiet {
		logger.SetOutput(io.Discard)
		return
	}

	if opts.Verbose {
		logger.SetLevel(logrus.DebugLevel)
		return
	}

	logger.SetLevel(logrus.InfoLevel)
}
