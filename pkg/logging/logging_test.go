package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInitWriter(t *testing.T) {
	defer InitWriter(&bytes.Buffer{}, "info")

	var buf bytes.Buffer
	InitWriter(&buf, "debug")
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	logrus.WithField("endpoint", "https://x").Debug("fetching projects")
	assert.Contains(t, buf.String(), "level=debug")
	assert.Contains(t, buf.String(), `msg="fetching projects"`)
	assert.Contains(t, buf.String(), "endpoint=")
}

func TestInitWriterUnknownLevel(t *testing.T) {
	defer InitWriter(&bytes.Buffer{}, "info")

	var buf bytes.Buffer
	InitWriter(&buf, "chatty")
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
	assert.Contains(t, buf.String(), "unknown log level")
}
