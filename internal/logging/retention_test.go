package logging_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"marquee/internal/logging"
)

func writeLogFile(t *testing.T, dir, name string, size int, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
	return path
}

func TestCleanupOldLogsRemovesExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	old := writeLogFile(t, dir, "marqueed-20250101T000000.000Z.log", 10, 40*24*time.Hour)
	fresh := writeLogFile(t, dir, "marqueed-20260801T000000.000Z.log", 10, time.Hour)

	logging.CleanupOldLogs(logging.NewNop(), logging.RetentionTarget{
		Dir:        dir,
		Pattern:    "marqueed-*.log",
		MaxAgeDays: 30,
	})

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected expired log removed, stat err=%v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("expected fresh log kept: %v", err)
	}
}

func TestCleanupOldLogsEnforcesSizeBound(t *testing.T) {
	dir := t.TempDir()
	oldest := writeLogFile(t, dir, "marqueed-a.log", 600, 3*time.Hour)
	middle := writeLogFile(t, dir, "marqueed-b.log", 600, 2*time.Hour)
	newest := writeLogFile(t, dir, "marqueed-c.log", 600, time.Hour)

	logging.CleanupOldLogs(logging.NewNop(), logging.RetentionTarget{
		Dir:           dir,
		Pattern:       "marqueed-*.log",
		MaxTotalBytes: 1300,
		MinKeepFiles:  1,
	})

	if _, err := os.Stat(oldest); !os.IsNotExist(err) {
		t.Fatalf("expected oldest log removed, stat err=%v", err)
	}
	if _, err := os.Stat(middle); err != nil {
		t.Fatalf("expected middle log kept: %v", err)
	}
	if _, err := os.Stat(newest); err != nil {
		t.Fatalf("expected newest log kept: %v", err)
	}
}

func TestCleanupOldLogsHonorsMinKeepAndExclusions(t *testing.T) {
	dir := t.TempDir()
	only := writeLogFile(t, dir, "marqueed-only.log", 10, 90*24*time.Hour)
	excluded := writeLogFile(t, dir, "marqueed-pinned.log", 10, 90*24*time.Hour)

	logging.CleanupOldLogs(logging.NewNop(), logging.RetentionTarget{
		Dir:          dir,
		Pattern:      "marqueed-*.log",
		Exclude:      []string{excluded},
		MaxAgeDays:   1,
		MinKeepFiles: 1,
	})

	if _, err := os.Stat(only); err != nil {
		t.Fatalf("expected newest matching log kept by min-keep: %v", err)
	}
	if _, err := os.Stat(excluded); err != nil {
		t.Fatalf("expected excluded log kept: %v", err)
	}
}
