package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileHandler is an slog.Handler that batches records into a tab-separated
// append-only log file. Each line carries a timestamp, a unique line id, the
// level, the message and the flattened attributes.
type FileHandler struct {
	path   string
	level  slog.Level
	mu     sync.Mutex
	buffer []string
	ticker *time.Ticker
	done   chan struct{}
}

func NewFileHandler(dir, filename string, level slog.Level) (*FileHandler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	h := &FileHandler{
		path:   filepath.Join(dir, filename),
		level:  level,
		buffer: make([]string, 0, 50),
		ticker: time.NewTicker(5 * time.Second),
		done:   make(chan struct{}),
	}
	go h.flushLoop()
	return h, nil
}

func (h *FileHandler) flushLoop() {
	for {
		select {
		case <-h.ticker.C:
			h.flush()
		case <-h.done:
			h.flush()
			return
		}
	}
}

func (h *FileHandler) flush() {
	h.mu.Lock()
	if len(h.buffer) == 0 {
		h.mu.Unlock()
		return
	}
	batch := h.buffer
	h.buffer = make([]string, 0, 50)
	h.mu.Unlock()

	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", h.path, err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(strings.Join(batch, "")); err != nil {
		fmt.Fprintf(os.Stderr, "failed to append to log file %s: %v\n", h.path, err)
	}
}

// Stop halts the flush loop and writes out anything still buffered.
func (h *FileHandler) Stop() {
	h.ticker.Stop()
	close(h.done)
	h.flush()
}

func (h *FileHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *FileHandler) Handle(_ context.Context, record slog.Record) error {
	var attrs []string
	record.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a.Key+"="+a.Value.String())
		return true
	})

	line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\n",
		record.Time.UTC().Format("20060102\t15:04:05"),
		uuid.NewString(),
		record.Level.String(),
		record.Message,
		strings.Join(attrs, " "),
	)

	h.mu.Lock()
	h.buffer = append(h.buffer, line)
	needFlush := len(h.buffer) >= 50
	h.mu.Unlock()

	if needFlush {
		go h.flush()
	}
	return nil
}

func (h *FileHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *FileHandler) WithGroup(name string) slog.Handler {
	return h
}

// OpenRequestLog returns an append-only writer for the request log, used as
// the output of the HTTP access log middleware.
func OpenRequestLog(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "requests.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open request log: %w", err)
	}
	return f, nil
}
