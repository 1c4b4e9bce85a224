package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const (
	fileExt        = ".json"
	tempFilePrefix = ".tmp-"
)

// FileStore keeps one JSON file per key in a directory. Several processes may share
// the directory; Watch turns their writes into change callbacks.
type FileStore struct {
	dir    string
	logger logrus.FieldLogger
}

func NewFileStore(dir string, logger logrus.FieldLogger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create file store directory: %w", err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	value, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Put writes through a temp file and rename so readers never observe a torn value.
func (s *FileStore) Put(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir, tempFilePrefix+"*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FileStore) Watch(ctx context.Context, onChange func(key string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if key, ok := s.keyFromPath(event.Name); ok {
				onChange(key)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.WithError(err).Warn("File store watcher error")
		}
	}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, escapeKey(key)+fileExt)
}

func (s *FileStore) keyFromPath(path string) (string, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, tempFilePrefix) || !strings.HasSuffix(name, fileExt) {
		return "", false
	}
	return unescapeKey(strings.TrimSuffix(name, fileExt))
}
