package core

import "github.com/dp2pwn/reconspider/internal/logging"

const (
	CLIName = "reconspider"
	VERSION = "v1.0.0"
)

// Logger is the process-wide logger. cmd configures its level and
// output once flags are parsed.
var Logger = logging.New()
