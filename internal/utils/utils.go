package utils

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// SetLogLevel sets the level of Log. Trace and panic levels are not used.
func SetLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(logrus.DebugLevel)
	case "info":
		Log.SetLevel(logrus.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(logrus.WarnLevel)
	case "error":
		Log.SetLevel(logrus.ErrorLevel)
	case "fatal":
		Log.SetLevel(logrus.FatalLevel)
	default:
		return fmt.Errorf("bad log level %q", level)
	}
	return nil
}

// AreSlicesEqual reports whether a and b hold the same strings in the same order.
func AreSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
