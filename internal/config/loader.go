package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	appLog "craftcal/internal/log"
)

// Loader holds the current configuration and reloads it when the file on
// disk changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Loader{path: filepath.Clean(path), current: cfg}, nil
}

// Config returns the current configuration. Callers must treat it as
// read-only; a reload swaps in a new pointer.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Path returns the file the loader reads.
func (l *Loader) Path() string {
	return l.path
}

// OnChange registers a callback invoked after every successful reload.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Reload re-reads the config file and notifies callbacks.
func (l *Loader) Reload() (*Config, error) {
	cfg, err := Load(l.path)
	if err != nil {
		return nil, fmt.Errorf("reload config %s: %w", l.path, err)
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*Config), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

// Watch starts a background goroutine that reloads the config when the file
// changes. The parent directory is watched so that atomic replacements
// (temp file + rename, as Save and most editors do) are seen too. Call the
// returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	dir := filepath.Dir(l.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", dir, err)
	}

	done := make(chan struct{})
	var once sync.Once
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != l.path {
					continue
				}
				// Moved away or deleted: wait for the replacement instead of
				// letting Load write defaults.
				if _, err := os.Stat(l.path); err != nil {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					if _, err := l.Reload(); err != nil {
						// Keep serving with the previous config.
						appLog.Error("config reload failed", err, "path", l.path)
						continue
					}
					appLog.Info("config reloaded", "path", l.path)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				appLog.Error("config watcher error", err, "path", l.path)
			case <-done:
				return
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }, nil
}
