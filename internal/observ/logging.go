package observ

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Log emits one structured event with arbitrary key/value context.
func Log(event string, kv map[string]any) {
	logger.WithFields(logrus.Fields(kv)).Info(event)
}

// Warn emits a structured warning event.
func Warn(event string, kv map[string]any) {
	logger.WithFields(logrus.Fields(kv)).Warn(event)
}

// Error emits a structured error event. The error is attached under "error".
func Error(event string, err error, kv map[string]any) {
	if kv == nil {
		kv = map[string]any{}
	}
	kv["error"] = err.Error()
	logger.WithFields(logrus.Fields(kv)).Error(event)
}
