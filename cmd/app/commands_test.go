package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/prentissw/chartedroots/internal/exportservice"
)

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	ok := exportservice.Result{Success: true, Path: "Timelines/a.canvas", EventCount: 3, Warnings: []string{"skipped"}}
	if err := report(&buf, []exportservice.Result{ok}); err != nil {
		t.Fatalf("report: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Timelines/a.canvas", "3 events", "skipped"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}

	buf.Reset()
	bad := exportservice.Failed("Timelines/b.canvas", errors.New("boom"))
	err := report(&buf, []exportservice.Result{ok, bad})
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("report error = %v, want 1 of 2 failed", err)
	}
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("output %q missing failure cause", buf.String())
	}
}
