package logger

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(log.New(&buf, "", 0), LogLevelWarning)

	l.Debugf("debug %d", 1)
	l.Infof("info %d", 2)
	l.Warnf("warn %d", 3)
	l.Errorf("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("messages below level were written: %q", out)
	}
	if !strings.Contains(out, "WARN: warn 3") {
		t.Errorf("missing warning in %q", out)
	}
	if !strings.Contains(out, "ERROR: error 4") {
		t.Errorf("missing error in %q", out)
	}
}

func TestWithTag(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(log.New(&buf, "", 0), LogLevelDebug).WithTag("gate")

	l.Infof("state %s", "idle")
	l.Debugf("tick")

	out := buf.String()
	if !strings.Contains(out, "[gate] state idle") {
		t.Errorf("tagged info line missing: %q", out)
	}
	if !strings.Contains(out, "[gate] DEBUG: tick") {
		t.Errorf("tagged debug line missing: %q", out)
	}
}

func TestNilLoggerDiscards(t *testing.T) {
	l := NewLogger(nil, LogLevelDebug).WithTag("gate")
	l.Debugf("nothing to see")
	l.Errorf("nothing to see")
}
