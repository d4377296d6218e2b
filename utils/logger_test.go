package utils

import (
	"testing"
	"time"
)

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := InitLogger("chatty", t.TempDir()); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestInitLoggerInstallsGlobal(t *testing.T) {
	logger, err := InitLogger("debug", t.TempDir())
	if err != nil {
		t.Fatalf("InitLogger: %v", err)
	}
	if Logger != logger {
		t.Fatal("expected InitLogger to replace the package logger")
	}
	logger.Debugw("logger ready", "test", t.Name())
}

func TestNewExponentialBackoff(t *testing.T) {
	b := NewExponentialBackoff(time.Minute)
	if b.MaxElapsedTime != time.Minute {
		t.Errorf("expected max elapsed 1m, got %v", b.MaxElapsedTime)
	}
	if first := b.NextBackOff(); first <= 0 || first > 2*time.Second {
		t.Errorf("unexpected first interval %v", first)
	}
}
