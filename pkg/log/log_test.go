package log

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetLevel(t *testing.T) {
	prev := logger.GetLevel()
	t.Cleanup(func() { logger.SetLevel(prev) })

	SetLevel("warn")
	assert.Equal(t, logrus.WarnLevel, L().GetLevel())

	SetLevel("nonsense")
	assert.Equal(t, logrus.WarnLevel, L().GetLevel())
}

func TestHelpersAcceptNilFields(t *testing.T) {
	var buf bytes.Buffer
	prevOut, prevLevel := logger.Out, logger.GetLevel()
	t.Cleanup(func() {
		logger.SetOutput(prevOut)
		logger.SetLevel(prevLevel)
	})
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.InfoLevel)

	Info(nil, "Review: job opened")
	Debug(Fields{"id": "x"}, "hidden")

	assert.Contains(t, buf.String(), "Review: job opened")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestCallerIsCallSite(t *testing.T) {
	var buf bytes.Buffer
	prevOut, prevLevel, prevFmt, prevCaller := logger.Out, logger.GetLevel(), logger.Formatter, logger.ReportCaller
	t.Cleanup(func() {
		logger.SetOutput(prevOut)
		logger.SetLevel(prevLevel)
		logger.SetFormatter(prevFmt)
		logger.SetReportCaller(prevCaller)
	})
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(newFormatter(true))
	logger.SetReportCaller(true)

	Warn(Fields{"job": "job-insp-001"}, "Review: update rejected")

	out := buf.String()
	assert.Contains(t, out, "[log_test.go:")
	assert.Contains(t, out, "[TestCallerIsCallSite()]")
	assert.NotContains(t, out, "[log.go:")
}
