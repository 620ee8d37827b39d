// Package tail follows a JSONL task log on disk and streams appended
// events. It is the offline counterpart of the executor's SSE stream: the
// same timeline can be watched from a file the executor (or a test
// harness) writes to.
package tail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"taskline/internal/event"
)

const streamBuffer = 64

// Tailer streams events appended to a JSONL log file.
type Tailer struct {
	path string
	log  *zap.Logger
}

// New builds a tailer for one log file. A nil logger disables diagnostics.
func New(path string, log *zap.Logger) *Tailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tailer{path: filepath.Clean(path), log: log}
}

// Run opens the file, replays its current contents, and then follows
// appends until the context is cancelled. The returned channel closes when
// following stops. Malformed lines are skipped so a half-written append
// never kills the stream.
func (t *Tailer) Run(ctx context.Context) (<-chan event.TaskEvent, error) {
	file, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("watch log: %w", err)
	}
	// Watch the directory, not the file: recreation after rotation only
	// shows up as a directory-level create.
	if err := watcher.Add(filepath.Dir(t.path)); err != nil {
		file.Close()
		watcher.Close()
		return nil, fmt.Errorf("watch log: %w", err)
	}

	out := make(chan event.TaskEvent, streamBuffer)
	go t.follow(ctx, file, watcher, out)
	return out, nil
}

// follow drains the file and then reacts to filesystem events.
func (t *Tailer) follow(ctx context.Context, file *os.File, watcher *fsnotify.Watcher, out chan<- event.TaskEvent) {
	defer close(out)
	defer watcher.Close()
	defer func() { file.Close() }()

	var (
		partial bytes.Buffer
		offset  int64
	)
	if !t.drain(ctx, file, &partial, &offset, out) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case fsEvent, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(fsEvent.Name) != t.path {
				continue
			}
			if fsEvent.Op.Has(fsnotify.Create) {
				// The file was recreated; start over from the top.
				reopened, err := os.Open(t.path)
				if err != nil {
					t.log.Warn("reopen log", zap.Error(err))
					continue
				}
				file.Close()
				file = reopened
				partial.Reset()
				offset = 0
			}
			if !t.drain(ctx, file, &partial, &offset, out) {
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			t.log.Warn("log watch error", zap.Error(err))
		}
	}
}

// drain reads everything appended since the last call and emits complete
// lines. It reports false when the context ended mid-send.
func (t *Tailer) drain(ctx context.Context, file *os.File, partial *bytes.Buffer, offset *int64, out chan<- event.TaskEvent) bool {
	if info, err := file.Stat(); err == nil && info.Size() < *offset {
		// Truncated in place; replay from the start.
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			t.log.Warn("rewind log", zap.Error(err))
			return true
		}
		partial.Reset()
		*offset = 0
	}
	chunk, err := io.ReadAll(file)
	if err != nil {
		t.log.Warn("read log", zap.Error(err))
		return true
	}
	*offset += int64(len(chunk))
	partial.Write(chunk)

	for {
		data := partial.Bytes()
		nl := bytes.IndexByte(data, '\n')
		if nl < 0 {
			return true
		}
		line := make([]byte, nl)
		copy(line, data[:nl])
		partial.Next(nl + 1)

		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		ev, err := event.Decode(trimmed)
		if err != nil {
			t.log.Warn("skip malformed log line", zap.Error(err))
			continue
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return false
		}
	}
}
