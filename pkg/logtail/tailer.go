// Package logtail follows a growing log file from its end.
package logtail

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultInterval is how long Next waits between polls when no file event
// arrives.
const DefaultInterval = 500 * time.Millisecond

// Options configures a Tailer.
type Options struct {
	Interval time.Duration // poll interval, DefaultInterval if zero
	Logger   *slog.Logger
}

// Tailer reads lines appended to a file after it was opened. It is not safe
// for concurrent use.
type Tailer struct {
	path     string
	f        *os.File
	r        *bufio.Reader
	offset   int64
	partial  []byte
	interval time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
}

// Open opens path and positions the cursor at its current end. Content
// already in the file is never returned.
func Open(path string, opts Options) (*Tailer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("seek log: %w", err)
	}

	t := &Tailer{
		path:     path,
		f:        f,
		r:        bufio.NewReader(f),
		offset:   offset,
		interval: opts.Interval,
		logger:   opts.Logger,
	}
	if t.interval <= 0 {
		t.interval = DefaultInterval
	}
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}
	t.watcher = initWatcher(path, t.logger)
	return t, nil
}

// Offset returns the byte offset of the next unread byte.
func (t *Tailer) Offset() int64 {
	return t.offset - int64(len(t.partial))
}

// Next blocks until a complete line is appended and returns it without its
// line terminator. A trailing line with no newline yet is held back until
// it is finished. Next returns ctx.Err() when ctx is done.
func (t *Tailer) Next(ctx context.Context) (string, error) {
	for {
		chunk, err := t.r.ReadBytes('\n')
		t.offset += int64(len(chunk))
		t.partial = append(t.partial, chunk...)

		if err == nil {
			line := bytes.TrimRight(t.partial, "\r\n")
			t.partial = t.partial[:0]
			return string(line), nil
		}
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read log: %w", err)
		}

		if err := t.checkReplaced(); err != nil {
			return "", err
		}
		if err := t.wait(ctx); err != nil {
			return "", err
		}
	}
}

// checkReplaced restarts from the beginning when the file was truncated or
// replaced by a new file at the same path.
func (t *Tailer) checkReplaced() error {
	cur, err := t.f.Stat()
	if err != nil {
		return fmt.Errorf("stat log: %w", err)
	}
	if cur.Size() < t.offset {
		t.logger.Debug("log truncated", "path", t.path, "size", cur.Size(), "offset", t.offset)
		return t.restart(t.f)
	}

	onDisk, err := os.Stat(t.path)
	if err != nil || os.SameFile(cur, onDisk) {
		// A missing path means rotation is in progress; keep the old handle.
		return nil
	}
	f, err := os.Open(t.path)
	if err != nil {
		return nil
	}
	t.logger.Debug("log replaced", "path", t.path)
	_ = t.f.Close()
	return t.restart(f)
}

func (t *Tailer) restart(f *os.File) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek log: %w", err)
	}
	t.f = f
	t.r.Reset(f)
	t.offset = 0
	t.partial = t.partial[:0]
	return nil
}

// wait sleeps for the poll interval or until the watcher reports a change.
func (t *Tailer) wait(ctx context.Context) error {
	timer := time.NewTimer(t.interval)
	defer timer.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if t.watcher != nil {
		events, errs = t.watcher.Events, t.watcher.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if sameFile(ev.Name, t.path) {
				return nil
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			t.logger.Warn("fsnotify: watcher error", "path", t.path, "error", err)
		}
	}
}

// Close releases the file and the watcher.
func (t *Tailer) Close() error {
	if t.watcher != nil {
		_ = t.watcher.Close()
	}
	return t.f.Close()
}
