package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const tmpSuffix = ".tmp"

// FileStore is a Store over a local directory. Object keys map to relative
// file paths, so a directory of script(1) captures can be served as-is.
type FileStore struct {
	baseDir  string
	pageSize int
	mu       sync.RWMutex
}

// NewFileStore creates a store rooted at baseDir, creating it if needed.
func NewFileStore(baseDir string, pageSize int) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &FileStore{baseDir: baseDir, pageSize: pageSize}, nil
}

// pathFor maps a key to a file path, rejecting keys that would escape baseDir.
func (s *FileStore) pathFor(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(clean)), nil
}

func (s *FileStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	p, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// ListObjects lists keys in lexical order. The continuation token is the
// last key of the previous page. The walk starts at the deepest directory the
// prefix names and skips subtrees that cannot hold a key after the token.
func (s *FileStore) ListObjects(ctx context.Context, prefix, token string) (ListPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	root := s.baseDir
	if dir := prefix[:strings.LastIndex(prefix, "/")+1]; dir != "" {
		p, err := s.pathFor(dir)
		if err != nil {
			return ListPage{}, fmt.Errorf("list %s: %w", prefix, err)
		}
		root = p
	}

	var keys []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && os.IsNotExist(err) {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			dirKey := key + "/"
			if !strings.HasPrefix(dirKey, prefix) && !strings.HasPrefix(prefix, dirKey) {
				return filepath.SkipDir
			}
			// Every key below dirKey sorts before token.
			if token != "" && dirKey < token && !strings.HasPrefix(token, dirKey) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(p, tmpSuffix) || key <= token || !strings.HasPrefix(key, prefix) {
			return nil
		}
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return ListPage{}, fmt.Errorf("list %s: %w", prefix, err)
	}

	sort.Strings(keys)
	page := ListPage{Keys: keys}
	if len(keys) > s.pageSize {
		page.Keys = keys[:s.pageSize]
		page.NextToken = page.Keys[len(page.Keys)-1]
	}
	return page, nil
}

// PutObject writes through a temp file and rename so readers never see a
// partial object.
func (s *FileStore) PutObject(ctx context.Context, key string, data []byte) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("create dir for %s: %w", key, err)
	}
	tmp := p + tmpSuffix
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("commit %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.baseDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.baseDir)
	}
	return nil
}
