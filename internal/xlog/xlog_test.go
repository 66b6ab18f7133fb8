package xlog

import (
	"testing"

	"github.com/go-kratos/kratos/v2/log"
)

func TestLevelFromString(t *testing.T) {
	cases := map[string]log.Level{
		"debug": log.LevelDebug,
		"DEBUG": log.LevelDebug,
		"info":  log.LevelInfo,
		"warn":  log.LevelWarn,
		"":      log.LevelWarn,
		"error": log.LevelError,
		"bogus": log.LevelWarn,
	}
	for in, want := range cases {
		if got := levelFromString(in); got != want {
			t.Errorf("levelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestOrDefaultsOnNil(t *testing.T) {
	if Or(nil) != Default() {
		t.Fatalf("Or(nil) should return the package default logger")
	}
	h := NewHelper(log.LevelDebug)
	if Or(h) != h {
		t.Fatalf("Or(h) should return h when non-nil")
	}
}
