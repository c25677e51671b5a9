package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestBanner_Good(t *testing.T) {
	var buf bytes.Buffer
	Banner(&buf, "/srv/files", "http://localhost:8080")

	out := buf.String()
	if !strings.Contains(out, "/srv/files") {
		t.Errorf("banner missing root: %q", out)
	}
	if !strings.Contains(out, "http://localhost:8080") {
		t.Errorf("banner missing URL: %q", out)
	}
	// Not stdout, so no escape codes regardless of the terminal.
	if strings.Contains(out, "\x1b[") {
		t.Errorf("banner to a plain writer should not be colorized: %q", out)
	}
}
