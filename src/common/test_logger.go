package common

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

// TestLogLevel is the level used by test loggers unless RACEGATE_TEST_LOG
// names another one.
var TestLogLevel = testLogLevel()

func testLogLevel() logrus.Level {
	if l, err := logrus.ParseLevel(os.Getenv("RACEGATE_TEST_LOG")); err == nil {
		return l
	}
	return logrus.InfoLevel
}

// testLoggerAdapter routes log lines to testing.T.Log so that they only show
// up for failed tests, or with -v.
type testLoggerAdapter struct {
	t testing.TB
}

func (a *testLoggerAdapter) Write(d []byte) (int, error) {
	n := len(d)
	if n > 0 && d[n-1] == '\n' {
		d = d[:n-1]
	}
	a.t.Log(string(d))
	return n, nil
}

// NewTestLogger returns a logrus.Logger writing into t.
func NewTestLogger(t testing.TB, level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.Out = &testLoggerAdapter{t: t}
	logger.Level = level
	return logger
}

// NewTestEntry returns an entry of a test logger, with the test name as
// prefix.
func NewTestEntry(t testing.TB, level logrus.Level) *logrus.Entry {
	return NewTestLogger(t, level).WithField("prefix", t.Name())
}
