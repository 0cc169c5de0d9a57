package core

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type customFormatter struct {
	logrus.TextFormatter
}

func (f *customFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	msg := entry.Message
	if run, ok := entry.Data["run"]; ok {
		msg = fmt.Sprintf("(%v) %s", run, msg)
	}
	return []byte(fmt.Sprintf("[%s][%s] \t%s\n", entry.Time.Format(f.TimestampFormat), strings.ToUpper(entry.Level.String()), msg)), nil
}

// InitLogger writes to stderr so stdout stays free for reports. logFile, when set, receives a copy
func InitLogger(isVerbose, isDebug bool, logFile string) error {
	logrus.SetFormatter(&customFormatter{logrus.TextFormatter{
		FullTimestamp:          true,
		TimestampFormat:        "2006-01-02 15:04:05",
		ForceColors:            true,
		DisableLevelTruncation: true,
	}})

	logrus.SetLevel(logrus.InfoLevel)
	if isVerbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if isDebug {
		logrus.SetLevel(logrus.TraceLevel)
		logrus.SetReportCaller(true)
	}

	if logFile == "" {
		logrus.SetOutput(os.Stderr)
		return nil
	}

	f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		logrus.SetOutput(os.Stderr)
		return fmt.Errorf("failed to create logsfile %s: %w", logFile, err)
	}

	logrus.SetOutput(io.MultiWriter(f, os.Stderr))
	return nil
}
