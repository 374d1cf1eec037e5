// Package logger holds the shared logrus instance for the application.
package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. Packages log through it directly.
var Log = logrus.New()

func init() {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// Init applies the configured level. An unparseable level falls back to info.
func Init(levelStr string) {
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)
}

// SetOutput redirects log output, used by tests to keep output quiet.
func SetOutput(w io.Writer) {
	Log.SetOutput(w)
}
