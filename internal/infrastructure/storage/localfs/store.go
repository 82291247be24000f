package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kirillkom/civic-digest/internal/core/ports"
)

const backupSuffix = ".bak"

// Store keeps the generated markdown documents in one flat directory.
type Store struct {
	basePath string
	locks    keyedMutex
}

func New(basePath string) (*Store, error) {
	if basePath == "" {
		basePath = "./data/output"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

func (s *Store) Dir() string {
	return s.basePath
}

func (s *Store) List(ctx context.Context) ([]ports.StoredFile, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("read output dir: %w", err)
	}
	files := make([]ports.StoredFile, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".md") {
			continue
		}
		path := filepath.Join(s.basePath, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		files = append(files, ports.StoredFile{Name: entry.Name(), Path: path, Content: content})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (s *Store) Exists(_ context.Context, name string) (string, bool) {
	path, err := s.path(name)
	if err != nil {
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// Write stores data under name. An existing file is moved to
// "<name>.bak" first, and the new content only appears once it is
// completely written.
func (s *Store) Write(_ context.Context, name string, data []byte) (string, error) {
	path, err := s.path(name)
	if err != nil {
		return "", err
	}

	unlock := s.locks.lock(name)
	defer unlock()

	tmp, err := os.CreateTemp(s.basePath, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+backupSuffix); err != nil {
			return "", fmt.Errorf("back up %s: %w", name, err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("move %s into place: %w", name, err)
	}
	return path, nil
}

func (s *Store) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid output name %q", name)
	}
	return filepath.Join(s.basePath, name), nil
}

// keyedMutex serializes work per key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
