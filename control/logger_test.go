package control_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/momentics/hioload-pagebench/control"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := control.NewLogger(&buf, "warn")
	l.Errorln("boom")
	l.Warnln("careful")
	l.Infoln("chatter")
	l.Debugln("noise")
	out := buf.String()
	if !strings.Contains(out, "boom") || !strings.Contains(out, "careful") {
		t.Errorf("enabled levels missing: %q", out)
	}
	if strings.Contains(out, "chatter") || strings.Contains(out, "noise") {
		t.Errorf("disabled levels printed: %q", out)
	}
}

func TestLoggerUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := control.NewLogger(&buf, "loud")
	l.Infoln("visible")
	l.Debugln("hidden")
	out := buf.String()
	if !strings.Contains(out, "visible") || strings.Contains(out, "hidden") {
		t.Errorf("fallback level wrong: %q", out)
	}
}
