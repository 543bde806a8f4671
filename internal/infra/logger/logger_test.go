package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("prod", "loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewBuildsForEnvironments(t *testing.T) {
	for _, env := range []string{"dev", "prod"} {
		log, err := New(env, "debug")
		if err != nil {
			t.Fatalf("new logger for %s: %v", env, err)
		}
		if !log.Core().Enabled(zapcore.DebugLevel) {
			t.Fatalf("debug level should be enabled for %s", env)
		}
	}
}
