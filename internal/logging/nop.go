package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// NewNop returns a logger that discards all output. Intended for tests.
func NewNop() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{Logger: l}
}
