// Package tailer follows watched files and emits each appended line.
package tailer

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/atikulmunna/quill/internal/model"
	"github.com/atikulmunna/quill/internal/watcher"
)

const (
	saveInterval   = 5 * time.Second
	reconnectTries = 5
)

// Tailer reads newly appended lines from watched files and emits RawLine values.
type Tailer struct {
	mu        sync.Mutex
	files     map[string]*trackedFile
	out       chan model.RawLine
	ckpt      *Checkpoint
	events    <-chan watcher.Event
	watch     *watcher.Watcher
	log       *zap.Logger
	fromStart bool
}

type trackedFile struct {
	file    *os.File
	reader  *bufio.Reader
	offset  int64  // bytes consumed through the last complete line
	partial string // bytes read past the last newline
}

// Option configures a Tailer.
type Option func(*Tailer)

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tailer) {
		if l != nil {
			t.log = l.Named("tailer")
		}
	}
}

// FromStart reads files without a checkpoint from the beginning instead of
// the end.
func FromStart() Option {
	return func(t *Tailer) { t.fromStart = true }
}

// New creates a Tailer that reads events from the given Watcher.
func New(w *watcher.Watcher, ckpt *Checkpoint, opts ...Option) *Tailer {
	t := &Tailer{
		files:  make(map[string]*trackedFile),
		out:    make(chan model.RawLine, 512),
		ckpt:   ckpt,
		events: w.Events,
		watch:  w,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Lines returns the channel where raw lines are sent. It is closed when
// Start returns.
func (t *Tailer) Lines() <-chan model.RawLine {
	return t.out
}

// Start processes watcher events until ctx is cancelled.
func (t *Tailer) Start(ctx context.Context) {
	defer close(t.out)

	for _, p := range t.watch.Paths() {
		t.openFile(p)
		t.readNewLines(ctx, p)
	}

	saveTicker := time.NewTicker(saveInterval)
	defer saveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.saveCheckpoint()
			t.closeAll()
			return

		case ev, ok := <-t.events:
			if !ok {
				t.saveCheckpoint()
				t.closeAll()
				return
			}
			t.handleEvent(ctx, ev)

		case <-saveTicker.C:
			t.saveCheckpoint()
		}
	}
}

func (t *Tailer) handleEvent(ctx context.Context, ev watcher.Event) {
	switch {
	case ev.Op&fsnotify.Write != 0:
		t.readNewLines(ctx, ev.Path)

	case ev.Op&fsnotify.Create != 0:
		t.openFile(ev.Path)
		t.readNewLines(ctx, ev.Path)

	case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
		t.closeFile(ev.Path)
		t.ckpt.Set(ev.Path, 0) // the replacement file starts fresh
		go t.reconnect(ctx, ev.Path)
	}
}

// openFile opens path, resuming from its checkpoint offset.
func (t *Tailer) openFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.files[path]; exists {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		t.log.Warn("cannot open file", zap.String("path", path), zap.Error(err))
		return
	}

	var offset int64
	saved, ok := t.ckpt.Get(path)
	switch {
	case ok:
		offset = saved
	case !t.fromStart:
		offset, _ = f.Seek(0, io.SeekEnd)
	}
	if fi, err := f.Stat(); err == nil && offset > fi.Size() {
		offset = 0 // truncated since the checkpoint
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		t.log.Warn("cannot seek file", zap.String("path", path), zap.Error(err))
		f.Close()
		return
	}

	t.files[path] = &trackedFile{
		file:   f,
		reader: bufio.NewReader(f),
		offset: offset,
	}
}

// readNewLines emits every complete line past the last offset. A trailing
// fragment without a newline is held until the rest arrives.
func (t *Tailer) readNewLines(ctx context.Context, path string) {
	t.mu.Lock()
	tf, ok := t.files[path]
	t.mu.Unlock()
	if !ok {
		return
	}

	for {
		chunk, err := tf.reader.ReadString('\n')
		if err != nil {
			tf.partial += chunk
			if err != io.EOF {
				t.log.Warn("read error", zap.String("path", path), zap.Error(err))
			}
			break
		}

		line := tf.partial + chunk
		tf.partial = ""
		tf.offset += int64(len(line))

		select {
		case t.out <- model.RawLine{Text: strings.TrimRight(line, "\r\n"), Source: path}:
		case <-ctx.Done():
			return
		}
	}
	t.ckpt.Set(path, tf.offset)
}

func (t *Tailer) closeFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tf, ok := t.files[path]; ok {
		tf.file.Close()
		delete(t.files, path)
	}
}

// reconnect polls for a rotated file to reappear.
func (t *Tailer) reconnect(ctx context.Context, path string) {
	for i := 0; i < reconnectTries; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
		if _, err := os.Stat(path); err == nil {
			t.log.Info("reconnected to rotated file", zap.String("path", path))
			if err := t.watch.ReWatch(path); err != nil {
				t.log.Warn("rewatch failed", zap.Error(err))
			}
			t.openFile(path)
			return
		}
	}
	t.log.Warn("gave up reconnecting", zap.String("path", path), zap.Int("tries", reconnectTries))
}

func (t *Tailer) saveCheckpoint() {
	if err := t.ckpt.Save(); err != nil {
		t.log.Error("checkpoint save failed", zap.Error(err))
	}
}

func (t *Tailer) closeAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for path, tf := range t.files {
		tf.file.Close()
		delete(t.files, path)
	}
}
