package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(New(&buf, "info"), "agent")
	logger.Info("called", Tool("schedule_calendar_event"))
	out := buf.String()
	if !strings.Contains(out, "tool=schedule_calendar_event") {
		t.Errorf("expected tool attribute in %q", out)
	}
	if !strings.Contains(out, "component=agent") {
		t.Errorf("expected component attribute in %q", out)
	}
}

func TestAttrs(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"operation", Operation("list"), KeyOperation, "list"},
		{"tool", Tool("list_calendar_events"), KeyTool, "list_calendar_events"},
		{"status", Status("success"), KeyStatus, "success"},
		{"model", Model("gpt-4o-mini"), KeyModel, "gpt-4o-mini"},
		{"duration", Duration(2 * time.Second), KeyDuration, "2s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value.String() != tt.wantVal {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.wantVal)
			}
		})
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != KeyError || attr.Value.String() != "boom" {
		t.Errorf("unexpected attr %v", attr)
	}

	var buf bytes.Buffer
	New(&buf, "info").Info("ok", Err(nil))
	if strings.Contains(buf.String(), KeyError) {
		t.Errorf("nil error should be omitted, got %q", buf.String())
	}
}

func TestHashSession(t *testing.T) {
	if got := HashSession(""); got != "" {
		t.Errorf("HashSession(\"\") = %q, want empty", got)
	}

	a := HashSession("abc")
	b := HashSession("abc")
	if a != b {
		t.Errorf("hash not stable: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "session:") {
		t.Errorf("expected session: prefix, got %q", a)
	}
	if strings.Contains(a, "abc") {
		t.Errorf("hash leaks the identifier: %q", a)
	}
	if HashSession("abd") == a {
		t.Error("different ids should hash differently")
	}
	if Session("abc").Value.String() != a {
		t.Error("Session attribute should carry the hash")
	}
}

func TestExtractDomain(t *testing.T) {
	tests := map[string]string{
		"":                "",
		"bob@example.com": "example.com",
		"invalid":         "",
		"a@b@c":           "",
	}
	for in, want := range tests {
		if got := ExtractDomain(in); got != want {
			t.Errorf("ExtractDomain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDomains(t *testing.T) {
	attr := Domains([]string{"a@example.com", " b@example.com", "c@other.org", "broken"})
	domains, ok := attr.Value.Any().([]string)
	if !ok {
		t.Fatalf("expected []string, got %T", attr.Value.Any())
	}
	if len(domains) != 2 || domains[0] != "example.com" || domains[1] != "other.org" {
		t.Errorf("unexpected domains %v", domains)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	NewJSON(&buf, "debug").Debug("hello", Tool("x"))
	if !strings.Contains(buf.String(), `"tool":"x"`) {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}
