package auth

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/HMasataka/scoreline/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// TokenProvider exposes the current credential. Refreshing the credential is
// someone else's job; providers only report what they currently hold.
type TokenProvider interface {
	Token() (string, bool)
}

// StaticProvider serves a fixed token
type StaticProvider struct {
	token string
}

// NewStaticProvider returns a provider that always yields token
func NewStaticProvider(token string) *StaticProvider {
	return &StaticProvider{token: token}
}

// Token reports the fixed token, and false when it is empty
func (p *StaticProvider) Token() (string, bool) {
	return p.token, p.token != ""
}

// FileProvider serves the token stored in a file and can watch it for changes
type FileProvider struct {
	path   string
	logger *logging.Logger

	mu    sync.RWMutex
	token string
}

// NewFileProvider reads the token at path. A missing file is not an error; the
// provider simply holds no token until the file appears.
func NewFileProvider(path string, logger *logging.Logger) (*FileProvider, error) {
	p := &FileProvider{
		path:   path,
		logger: logger.WithFields(map[string]any{"token_file": path}),
	}

	if _, err := p.reload(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return p, nil
}

func (p *FileProvider) Token() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token, p.token != ""
}

// reload re-reads the file and reports whether the token changed
func (p *FileProvider) reload() (bool, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return false, err
	}

	token := string(bytes.TrimSpace(data))

	p.mu.Lock()
	defer p.mu.Unlock()

	if token == p.token {
		return false, nil
	}
	p.token = token
	return true, nil
}

// Watch blocks until ctx is done, calling onChange with the new token every
// time the file content changes. The parent directory is watched so that
// atomic replace-by-rename writes are seen.
func (p *FileProvider) Watch(ctx context.Context, onChange func(token string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create token watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(p.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	name := filepath.Clean(p.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}

			changed, err := p.reload()
			if err != nil {
				if !os.IsNotExist(err) {
					p.logger.Warn("failed to reload token", "error", err)
				}
				continue
			}
			if changed {
				p.logger.Info("credential changed")
				token, _ := p.Token()
				onChange(token)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Warn("token watcher error", "error", err)
		}
	}
}
