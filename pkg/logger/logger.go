package logger

import (
	"io"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var (
	rootLogger = logrus.New()

	formatter = &prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		ForceFormatting: true,
	}
)

func init() {
	rootLogger.SetFormatter(formatter)
	rootLogger.SetOutput(os.Stderr)
	rootLogger.SetLevel(logrus.InfoLevel)
}

// Init configures the root logger. verbosity is the count of -v flags
// (0 = info, 1 = debug, >= 2 = trace). When logFilePath is non-empty,
// log output is mirrored to a rotating file.
func Init(verbosity int, logFilePath string) error {
	switch {
	case verbosity <= 0:
		rootLogger.SetLevel(logrus.InfoLevel)
	case verbosity == 1:
		rootLogger.SetLevel(logrus.DebugLevel)
	default:
		rootLogger.SetLevel(logrus.TraceLevel)
	}

	if logFilePath != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   logFilePath,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
		}

		rootLogger.SetOutput(io.MultiWriter(os.Stderr, fileWriter))
	}

	return nil
}

// GetLogger returns a component-scoped log entry.
func GetLogger(prefix string) *logrus.Entry {
	return rootLogger.WithField("prefix", prefix)
}
