package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// StartCleanup runs a daily goroutine that deletes log files in dir that
// have not been written to within the retention window.
func StartCleanup(dir string, retentionDays int, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				removed, err := pruneOldLogs(dir, retentionDays)
				if err != nil {
					slog.Error("log cleanup failed", "error", err)
				} else if removed > 0 {
					slog.Info("log cleanup completed", "deleted", removed)
				}
			case <-done:
				return
			}
		}
	}()
}

func pruneOldLogs(dir string, retentionDays int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".log" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
