package log

import (
	"bytes"
	"testing"
)

func TestLogf(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Logf("count: %d", 3)
	if buf.String() != "count: 3" {
		t.Errorf("Logf output = %q, want %q", buf.String(), "count: 3")
	}
}

func TestLogln(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Logln("hello", "world")
	if buf.String() != "hello world\n" {
		t.Errorf("Logln output = %q, want %q", buf.String(), "hello world\n")
	}
}

func TestLogLABtfln(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.LogLABtfln("building %s", "module")
	if buf.String() != "labt: building module\n" {
		t.Errorf("LogLABtfln output = %q, want %q", buf.String(), "labt: building module\n")
	}
}

func TestTarget(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Target(Warn, "aapt", "resource clash")
	want := "[warn] aapt: resource clash\n"
	if buf.String() != want {
		t.Errorf("Target output = %q, want %q", buf.String(), want)
	}
}

func TestSeverityString(t *testing.T) {
	cases := []struct {
		sev  Severity
		want string
	}{
		{Info, "info"},
		{Warn, "warn"},
		{Error, "error"},
		{Severity(99), "unknown"},
	}
	for _, c := range cases {
		if got := c.sev.String(); got != c.want {
			t.Errorf("Severity(%d).String() = %q, want %q", c.sev, got, c.want)
		}
	}
}
