package service

import (
	"io"

	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func floatPtr(f float64) *float64 {
	return &f
}
