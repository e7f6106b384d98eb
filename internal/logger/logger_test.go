package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	dbg, err := New(true)
	if err != nil {
		t.Fatalf("debug logger: %v", err)
	}
	if !dbg.Core().Enabled(zap.DebugLevel) {
		t.Error("debug logger should log debug")
	}

	prod, err := New(false)
	if err != nil {
		t.Fatalf("prod logger: %v", err)
	}
	if prod.Core().Enabled(zap.DebugLevel) {
		t.Error("prod logger should not log debug")
	}
	if !prod.Core().Enabled(zap.InfoLevel) {
		t.Error("prod logger should log info")
	}
}
