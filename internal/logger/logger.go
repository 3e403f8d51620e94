package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

func New() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if err != nil || level > logrus.TraceLevel || level < logrus.ErrorLevel {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	return l
}

// ForSession scopes a logger to one interview connection.
func ForSession(l logrus.FieldLogger, sessionID, jobID, resumeID string) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"session_id": sessionID,
		"job_id":     jobID,
		"resume_id":  resumeID,
	})
}
