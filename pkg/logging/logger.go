package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. It defaults to a quiet stderr logger so
// library code can log before InitLogger runs (tests, early startup).
var Log = logrus.New()

func init() {
	Log.SetLevel(logrus.WarnLevel)
	Log.SetOutput(os.Stderr)
}

// InitLogger configures the global logger: human-readable text with
// timestamps in debug mode, JSON otherwise.
func InitLogger(debug bool) {
	Log.SetOutput(os.Stdout)

	if debug {
		Log.SetLevel(logrus.DebugLevel)
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		Log.SetLevel(logrus.InfoLevel)
		Log.SetFormatter(&logrus.JSONFormatter{})
	}
}

// Silence discards all log output, used by tests that exercise failure
// paths on purpose.
func Silence() {
	Log.SetOutput(io.Discard)
}
