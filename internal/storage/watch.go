package storage

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch reports the key of every object created, rewritten or removed under
// the store directory until ctx is cancelled. Directories created later are
// watched as they appear.
func (s *FileStore) Watch(ctx context.Context, fn func(key string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := addDirsRecursive(w, s.baseDir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", s.baseDir, err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						// Files may land before the watch is added; report
						// whatever is already there.
						addDirsRecursive(w, event.Name)
						s.reportFiles(event.Name, fn)
						continue
					}
				}
				if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
					continue
				}
				s.report(event.Name, fn)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("[store] watcher error: %v", err)
			}
		}
	}()
	return nil
}

func (s *FileStore) report(p string, fn func(key string)) {
	if strings.HasSuffix(p, tmpSuffix) {
		return
	}
	rel, err := filepath.Rel(s.baseDir, p)
	if err != nil || rel == "." {
		return
	}
	fn(filepath.ToSlash(rel))
}

func (s *FileStore) reportFiles(dir string, fn func(key string)) {
	filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			s.report(p, fn)
		}
		return nil
	})
}

// addDirsRecursive adds dir and its subdirectories to w.
func addDirsRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return w.Add(p)
	})
}
