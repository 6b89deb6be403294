// Package watcher uploads files dropped into a directory into a notebook.
package watcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-server/internal/logger"
)

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("watcher: closed")

// Options tunes a Watcher.
type Options struct {
	// Debounce is the quiet period after the last write before a file is uploaded.
	Debounce time.Duration

	// MaxFileSize skips larger files. Zero disables the check.
	MaxFileSize int64

	// InitialScan uploads files already present when watching starts.
	InitialScan bool
}

// Event reports the outcome of one upload attempt.
type Event struct {
	Path     string
	Document *domain.Document
	Err      error
}

// Watcher watches a single directory (non-recursively) and uploads new or
// rewritten files with a supported extension into a notebook.
type Watcher struct {
	root       string
	notebookID string
	documents  driving.DocumentService
	opts       Options

	mu      sync.Mutex
	closed  bool
	fsw     *fsnotify.Watcher
	uploads map[string][32]byte
}

// New creates a watcher for root that uploads into notebookID.
func New(root, notebookID string, documents driving.DocumentService, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	return &Watcher{
		root:       root,
		notebookID: notebookID,
		documents:  documents,
		opts:       opts,
		uploads:    make(map[string][32]byte),
	}
}

// Watch starts watching and returns a channel of upload outcomes.
// The channel is closed when ctx is cancelled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if w.fsw != nil {
		return nil, errors.New("watcher: already watching")
	}

	info, err := os.Stat(w.root)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", w.root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(w.root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", w.root, err)
	}
	w.fsw = fsw

	events := make(chan Event, 16)
	go w.loop(ctx, fsw, events)

	return events, nil
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, out chan<- Event) {
	defer close(out)

	pending := make(map[string]time.Time)

	if w.opts.InitialScan {
		for _, path := range w.scan() {
			pending[path] = time.Time{}
		}
	}

	ticker := time.NewTicker(w.opts.Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if path, ok := w.handleFsEvent(event); ok {
				pending[path] = time.Now()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher: %v", err)

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < w.opts.Debounce {
					continue
				}
				delete(pending, path)

				ev, uploaded := w.upload(ctx, path)
				if !uploaded {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// handleFsEvent returns the path to upload for event, if any.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if !eligible(event.Name) {
		return "", false
	}

	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return event.Name, true
}

// scan lists eligible files already in root.
func (w *Watcher) scan() []string {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		logger.Warn("watcher: scanning %s: %v", w.root, err)
		return nil
	}

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !eligible(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(w.root, e.Name()))
	}
	return paths
}

// upload sends path to the document service. It reports false when the
// file was skipped without an upload attempt.
func (w *Watcher) upload(ctx context.Context, path string) (Event, bool) {
	info, err := os.Stat(path)
	if err != nil {
		// Removed before the quiet period elapsed.
		return Event{}, false
	}
	if w.opts.MaxFileSize > 0 && info.Size() > w.opts.MaxFileSize {
		logger.Warn("watcher: skipping %s: %d bytes exceeds limit", path, info.Size())
		return Event{}, false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Event{Path: path, Err: fmt.Errorf("reading %s: %w", path, err)}, true
	}

	sum := sha256.Sum256(content)
	w.mu.Lock()
	prev, seen := w.uploads[path]
	w.mu.Unlock()
	if seen && prev == sum {
		logger.Debug("watcher: %s unchanged, skipping", path)
		return Event{}, false
	}

	doc, err := w.documents.Upload(ctx, w.notebookID, filepath.Base(path), content)
	if err != nil {
		return Event{Path: path, Err: err}, true
	}

	w.mu.Lock()
	w.uploads[path] = sum
	w.mu.Unlock()

	logger.Info("watcher: uploaded %s as %s", filepath.Base(path), doc.ID)
	return Event{Path: path, Document: doc}, true
}

// eligible reports whether name is visible and has a supported extension.
func eligible(name string) bool {
	base := filepath.Base(name)
	if isHidden(base) {
		return false
	}
	return domain.FileTypeFromName(base).IsSupported()
}

// isHidden checks for dotfiles and editor temporaries.
func isHidden(base string) bool {
	return strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") || strings.HasSuffix(base, "~")
}
