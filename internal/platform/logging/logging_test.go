package logging

import "testing"

func TestNewAcceptsKnownFormats(t *testing.T) {
	for _, format := range []string{"", "json", "console", "JSON"} {
		logger, err := New("debug", format)
		if err != nil {
			t.Fatalf("New(debug, %q): %v", format, err)
		}
		if !logger.Core().Enabled(-1) {
			t.Fatalf("format %q: expected debug level enabled", format)
		}
	}
}

func TestNewRejectsInvalidInput(t *testing.T) {
	if _, err := New("loud", "json"); err == nil {
		t.Fatal("expected invalid level error")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Fatal("expected invalid format error")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("expected no-op logger")
	}
}
