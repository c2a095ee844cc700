package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"marquee/internal/ipc"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Marquee", statusWarn, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Marquee:", "[WARN] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Marquee", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestStatusKindFromSeverity(t *testing.T) {
	cases := []struct {
		severity string
		want     statusKind
	}{
		{"ok", statusOK},
		{"OK", statusOK},
		{"warn", statusWarn},
		{"warning", statusWarn},
		{"error", statusError},
		{"info", statusInfo},
		{"", statusInfo},
		{"unknown", statusInfo},
	}
	for _, tc := range cases {
		if got := statusKindFromSeverity(tc.severity); got != tc.want {
			t.Fatalf("statusKindFromSeverity(%q) = %v, want %v", tc.severity, got, tc.want)
		}
	}
}

func TestMirrorLines(t *testing.T) {
	status := &ipc.StatusResponse{
		Running:         true,
		Username:        "alice",
		ServerName:      "Den",
		RefreshSeconds:  15,
		Polls:           7,
		UpdatesSent:     3,
		ClearsSent:      1,
		Version:         "0.1.0",
		UpdateAvailable: "0.2.0",
	}
	lines := mirrorLines(status)
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "alice") {
		t.Fatalf("expected username in output, got:\n%s", joined)
	}
	if !strings.Contains(joined, "every 15s") {
		t.Fatalf("expected refresh interval, got:\n%s", joined)
	}
	if !strings.Contains(joined, "7 (3 updates, 1 clears)") {
		t.Fatalf("expected poll counters, got:\n%s", joined)
	}
	if !strings.Contains(joined, "0.1.0 (update available: 0.2.0)") {
		t.Fatalf("expected update hint, got:\n%s", joined)
	}
}

func TestNowPlayingLines(t *testing.T) {
	np := &ipc.NowPlaying{
		Label:     "Heat (1995)",
		Details:   "Heat",
		State:     "01:12:03 / 02:50:00",
		MediaType: "Movie",
		Paused:    true,
	}
	lines := nowPlayingLines(np)
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "Heat (1995)") {
		t.Fatalf("expected title, got:\n%s", joined)
	}
	if !strings.Contains(joined, "Movie") {
		t.Fatalf("expected media type, got:\n%s", joined)
	}
	if !strings.Contains(joined, "yes") {
		t.Fatalf("expected paused flag, got:\n%s", joined)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
