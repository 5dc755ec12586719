package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

type Fields = logrus.Fields

var log = logrus.New()

func init() {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.InfoLevel)
}

// Init configures output format and level for the given environment.
// Development gets human-readable text with debug enabled, everything else JSON at info.
func Init(environment string) {
	if environment == "development" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
		return
	}
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

func Info(format string, v ...interface{}) {
	log.Infof(format, v...)
}

func Error(format string, v ...interface{}) {
	log.Errorf(format, v...)
}

func Debug(format string, v ...interface{}) {
	log.Debugf(format, v...)
}

func Warn(format string, v ...interface{}) {
	log.Warnf(format, v...)
}

func WithFields(fields Fields) *logrus.Entry {
	return log.WithFields(fields)
}

// Logger exposes the underlying logrus logger for libraries that want an io.Writer or hooks.
func Logger() *logrus.Logger {
	return log
}
