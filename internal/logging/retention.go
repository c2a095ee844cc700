package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// RetentionTarget bounds the per-run log files kept in a directory. Files are
// pruned when older than MaxAgeDays or when the directory exceeds
// MaxTotalBytes, but the newest MinKeepFiles matching files always survive.
type RetentionTarget struct {
	Dir           string
	Pattern       string
	Exclude       []string
	MaxAgeDays    int
	MaxTotalBytes int64
	MinKeepFiles  int
}

type logFile struct {
	path    string
	size    int64
	modTime time.Time
}

// CleanupOldLogs prunes files matching the target. Zero MaxAgeDays and
// MaxTotalBytes disable the respective bound.
func CleanupOldLogs(logger *slog.Logger, target RetentionTarget) {
	dir := strings.TrimSpace(target.Dir)
	if dir == "" {
		return
	}
	if target.MaxAgeDays <= 0 && target.MaxTotalBytes <= 0 {
		return
	}

	exclusions := make(map[string]struct{}, len(target.Exclude))
	for _, path := range target.Exclude {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			if abs, err := filepath.Abs(trimmed); err == nil {
				exclusions[abs] = struct{}{}
			}
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	var files []logFile
	var totalSize int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if pat := strings.TrimSpace(target.Pattern); pat != "" {
			matched, err := filepath.Match(pat, name)
			if err != nil || !matched {
				continue
			}
		}
		fullPath := filepath.Join(dir, name)
		if abs, err := filepath.Abs(fullPath); err == nil {
			fullPath = abs
		}
		if _, skip := exclusions[fullPath]; skip {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, logFile{path: fullPath, size: info.Size(), modTime: info.ModTime()})
		totalSize += info.Size()
	}

	// Oldest first so both bounds drop from the tail of history.
	sort.Slice(files, func(i, j int) bool { return files[i].modTime.Before(files[j].modTime) })

	minKeep := target.MinKeepFiles
	if minKeep < 0 {
		minKeep = 0
	}

	var cutoff time.Time
	if target.MaxAgeDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -target.MaxAgeDays)
	}

	for i, f := range files {
		if len(files)-i <= minKeep {
			break
		}
		tooOld := target.MaxAgeDays > 0 && f.modTime.Before(cutoff)
		tooLarge := target.MaxTotalBytes > 0 && totalSize > target.MaxTotalBytes
		if !tooOld && !tooLarge {
			continue
		}
		if err := os.Remove(f.path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", f.path),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		totalSize -= f.size
		if logger != nil {
			logger.Info("log pruned",
				String("path", f.path),
				String(FieldEventType, "log_pruned"),
			)
		}
	}
}
