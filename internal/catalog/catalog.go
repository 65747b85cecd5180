// Package catalog resolves recording folders in an object store into
// playable recordings.
package catalog

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/nyrahul/shellsight/internal/logutil"
	"github.com/nyrahul/shellsight/internal/recording"
	"github.com/nyrahul/shellsight/internal/storage"
	"golang.org/x/sync/singleflight"
)

// ErrRecordingNotFound means the folder is missing one or both of its
// timing and typescript members.
var ErrRecordingNotFound = errors.New("recording not found")

// ErrInvalidFolder means the folder name cannot address a recording.
var ErrInvalidFolder = errors.New("invalid recording folder")

// LoadTimeout bounds one shared fetch of a recording's members.
const LoadTimeout = 30 * time.Second

// DefaultCacheSize is the number of loaded recordings kept in memory.
const DefaultCacheSize = 32

// Recording is a loaded, parsed recording. It is immutable and shared by
// every viewer replaying the same folder.
type Recording struct {
	Namespace string
	Folder    string
	Timing    recording.TimingStream
	Output    recording.OutputBlob
}

// Duration returns the total playback time in seconds at speed 1.
func (r *Recording) Duration() float64 { return r.Timing.Duration() }

// Catalog lists and loads recordings stored under a key prefix.
type Catalog struct {
	store  storage.Store
	prefix string

	loads singleflight.Group

	mu        sync.Mutex
	cacheSize int
	order     *list.List               // front = most recently used
	entries   map[string]*list.Element // physical folder prefix → element
}

type cacheEntry struct {
	key string
	rec *Recording
}

// New creates a Catalog reading from store under prefix. cacheSize <= 0
// means DefaultCacheSize.
func New(store storage.Store, prefix string, cacheSize int) *Catalog {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &Catalog{
		store:     store,
		prefix:    prefix,
		cacheSize: cacheSize,
		order:     list.New(),
		entries:   make(map[string]*list.Element),
	}
}

// Prefix returns the key prefix recordings live under.
func (c *Catalog) Prefix() string { return c.prefix }

// ListRecordings returns every valid recording folder in namespace, newest
// first. Listing pages are merged before validation so a folder whose
// members straddle a page boundary is still found.
func (c *Catalog) ListRecordings(ctx context.Context, namespace string) ([]recording.FolderInfo, error) {
	listPrefix := recording.NamespacePrefix(c.prefix, namespace)
	folders := recording.NewFolderSet(c.prefix, namespace)

	pages := 0
	err := storage.ListAll(ctx, c.store, listPrefix, func(keys []string) {
		pages++
		folders.Add(keys...)
	})
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}

	valid := folders.Valid()
	infos := make([]recording.FolderInfo, 0, len(valid))
	for _, f := range valid {
		infos = append(infos, recording.ParseFolderName(f))
	}
	recording.SortFolders(infos)

	log.Printf("[catalog] listed namespace=%q prefix=%q pages=%d folders=%d valid=%d",
		logutil.SanitizeForLog(namespace), listPrefix, pages, folders.Len(), len(infos))
	return infos, nil
}

// IsValid lists the keys under one folder and reports whether it holds both
// members.
func (c *Catalog) IsValid(ctx context.Context, namespace, folder string) (bool, error) {
	if err := ValidateFolder(folder); err != nil {
		return false, err
	}
	var keys []string
	err := storage.ListAll(ctx, c.store, recording.FolderPrefix(c.prefix, namespace, folder), func(page []string) {
		keys = append(keys, page...)
	})
	if err != nil {
		return false, fmt.Errorf("list folder %s: %w", folder, err)
	}
	return recording.IsValidRecording(keys), nil
}

// Load returns the parsed recording for folder in namespace. Concurrent
// loads of the same folder share one fetch, and results are cached.
func (c *Catalog) Load(ctx context.Context, namespace, folder string) (*Recording, error) {
	if err := ValidateFolder(folder); err != nil {
		return nil, err
	}
	key := recording.FolderPrefix(c.prefix, namespace, folder)

	if rec := c.cached(key); rec != nil {
		return rec, nil
	}

	// The fetch is detached from ctx; each caller only stops waiting on it.
	ch := c.loads.DoChan(key, func() (interface{}, error) {
		if rec := c.cached(key); rec != nil {
			return rec, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), LoadTimeout)
		defer cancel()
		rec, err := c.fetch(fetchCtx, namespace, folder)
		if err != nil {
			return nil, err
		}
		c.remember(key, rec)
		return rec, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Recording), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Catalog) fetch(ctx context.Context, namespace, folder string) (*Recording, error) {
	ok, err := c.IsValid(ctx, namespace, folder)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", folder, ErrRecordingNotFound)
	}

	timingKey := recording.BuildKey(c.prefix, namespace, folder, recording.TimingFile)
	timing, err := c.get(ctx, timingKey)
	if err != nil {
		return nil, err
	}

	outputKey := recording.BuildKey(c.prefix, namespace, folder, recording.TypescriptFile)
	output, err := c.get(ctx, outputKey)
	if err != nil {
		return nil, err
	}

	rec := &Recording{
		Namespace: namespace,
		Folder:    folder,
		Timing:    recording.ParseTiming(string(timing)),
		Output:    recording.NewOutputBlob(output),
	}
	log.Printf("[catalog] loaded %s: entries=%d duration=%.3fs bytes=%d header=%d",
		logutil.SanitizeForLog(timingKey), len(rec.Timing), rec.Duration(), rec.Output.Len(), rec.Output.HeaderOffset())
	return rec, nil
}

func (c *Catalog) get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.store.GetObject(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", key, ErrRecordingNotFound)
		}
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	return data, nil
}

func (c *Catalog) cached(key string) *Recording {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).rec
}

func (c *Catalog) remember(key string, rec *Recording) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).rec = rec
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, rec: rec})
	for c.order.Len() > c.cacheSize {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// Cached returns the number of recordings held in memory.
func (c *Catalog) Cached() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Invalidate drops cached recordings that contain the object key, so the
// next Load refetches them. It returns the number of entries dropped.
func (c *Catalog) Invalidate(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for prefix, el := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.order.Remove(el)
			delete(c.entries, prefix)
			n++
		}
	}
	if n > 0 {
		log.Printf("[catalog] invalidated %d cached recording(s) for %s", n, logutil.SanitizeForLog(key))
	}
	return n
}

// ValidateFolder rejects names that are empty or would address something
// other than a single folder.
func ValidateFolder(folder string) error {
	if folder == "" || folder == "." || folder == ".." || strings.ContainsAny(folder, "/\\") {
		return fmt.Errorf("%q: %w", folder, ErrInvalidFolder)
	}
	return nil
}
