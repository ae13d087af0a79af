package counters

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/cexll/rivalsbot/internal/logging"
)

//go:embed counters.txt
var defaultTable []byte

const defaultDebounce = 250 * time.Millisecond

// Source holds the current counters table. When backed by a file it can be
// reloaded in place while handlers keep reading it.
type Source struct {
	mu    sync.RWMutex
	table Table

	path     string
	debounce time.Duration
	logger   *log.Logger
}

// NewSource loads the table from path, or the built-in table when path is
// empty.
func NewSource(path string, logger *log.Logger) (*Source, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Source{path: path, debounce: defaultDebounce, logger: logger}
	if path == "" {
		table, err := Parse(bytes.NewReader(defaultTable))
		if err != nil {
			return nil, err
		}
		s.table = table
		return s, nil
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Table returns the current table. Callers must not modify it.
func (s *Source) Table() Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// Lookup resolves input against the current table.
func (s *Source) Lookup(input string) (string, Entry, bool) {
	return s.Table().Lookup(input)
}

// Reload re-reads the backing file. On error the previous table is kept.
func (s *Source) Reload() error {
	if s.path == "" {
		return nil
	}
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open counters file: %w", err)
	}
	defer f.Close()

	table, err := Parse(f)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.table = table
	s.mu.Unlock()
	s.logger.Info("counters loaded", "path", s.path, "entries", len(table))
	return nil
}

// Watch reloads the table whenever the backing file is written or replaced,
// until ctx ends. It returns immediately for the built-in table.
func (s *Source) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create counters watcher: %w", err)
	}
	defer fsw.Close()

	// Editors often replace the file, so watch its directory.
	dir := filepath.Dir(s.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(s.path)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		if ctx.Err() != nil {
			return
		}
		if err := s.Reload(); err != nil {
			s.logger.Warn("counters reload failed", "path", s.path, "error", err)
		}
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-fsw.Events:
			if !ok {
				return fmt.Errorf("counters watcher event channel closed")
			}
			if filepath.Clean(evt.Name) != target {
				continue
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
				continue
			}
			mu.Lock()
			if timer == nil {
				timer = time.AfterFunc(s.debounce, reload)
			} else {
				timer.Reset(s.debounce)
			}
			mu.Unlock()

		case err, ok := <-fsw.Errors:
			if !ok {
				return fmt.Errorf("counters watcher error channel closed")
			}
			s.logger.Warn("counters watcher error", "error", err)
		}
	}
}
