package logging

import (
	"bytes"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestObservedLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Debugw("debug msg", "iteration", 3)
	logger.Infof("info %d", 1)
	test.That(t, logs.Len(), test.ShouldEqual, 2)

	entries := logs.All()
	test.That(t, entries[0].Message, test.ShouldEqual, "debug msg")
	test.That(t, entries[0].Level, test.ShouldEqual, zapcore.DebugLevel)
	test.That(t, entries[0].ContextMap()["iteration"], test.ShouldEqual, int64(3))
	test.That(t, entries[1].Message, test.ShouldEqual, "info 1")
	test.That(t, entries[0].Caller.File, test.ShouldContainSubstring, "logging_test.go")
}

func TestLevels(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.SetLevel(WARN)
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept")
	test.That(t, logs.Len(), test.ShouldEqual, 2)

	sub := logger.Sublogger("ik")
	test.That(t, sub.GetLevel(), test.ShouldEqual, WARN)
	sub.SetLevel(DEBUG)
	sub.Debug("sub debug")
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)
	test.That(t, logs.FilterLoggerName("ik").Len(), test.ShouldEqual, 1)
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in  string
		out Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warn", WARN},
		{"error", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.out)
	}
	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, ERROR.String(), test.ShouldEqual, "Error")
	test.That(t, INFO.AsZap(), test.ShouldEqual, zapcore.InfoLevel)
	test.That(t, DEBUG.AsZap(), test.ShouldEqual, zapcore.DebugLevel)
}

func TestBlankLogger(t *testing.T) {
	logger := NewBlankLogger("quiet")
	logger.Infow("nothing", "k", "v")
	test.That(t, logger.Sync(), test.ShouldBeNil)
	test.That(t, logger.AsZap(), test.ShouldNotBeNil)
}

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("cli", INFO, &buf)
	logger.Debug("hidden")
	logger.Infow("loaded model", "bodies", 7)
	test.That(t, logger.Sync(), test.ShouldBeNil)
	out := buf.String()
	test.That(t, out, test.ShouldNotContainSubstring, "hidden")
	test.That(t, out, test.ShouldContainSubstring, "cli")
	test.That(t, out, test.ShouldContainSubstring, "loaded model")
	test.That(t, out, test.ShouldContainSubstring, "bodies")
}
