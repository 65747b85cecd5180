package audit

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nyrahul/shellsight/internal/database"
	"github.com/nyrahul/shellsight/internal/recording"
	"github.com/nyrahul/shellsight/internal/storage"
	"github.com/robfig/cron/v3"
)

// SnapshotFolder is the pseudo-folder audit snapshots are uploaded to. It
// never holds timing or typescript members, so it is never listed as a
// recording.
const SnapshotFolder = "_audit"

// SnapshotFile is the object name of the uploaded database snapshot.
const SnapshotFile = "logins.db"

// Syncer periodically copies the login audit database into the object store
// and purges expired rows.
type Syncer struct {
	auditor *Auditor
	store   storage.Store
	key     string

	cron *cron.Cron

	mu       sync.Mutex
	lastSync time.Time
	lastErr  error
}

// NewSyncer creates a Syncer uploading to {prefix}_audit/logins.db.
func NewSyncer(auditor *Auditor, store storage.Store, prefix string) *Syncer {
	return &Syncer{
		auditor: auditor,
		store:   store,
		key:     recording.BuildKey(prefix, "", SnapshotFolder, SnapshotFile),
	}
}

// Key returns the object key snapshots are written to.
func (s *Syncer) Key() string { return s.key }

// Sync snapshots the database and uploads it.
func (s *Syncer) Sync(ctx context.Context) error {
	err := s.sync(ctx)

	s.mu.Lock()
	s.lastErr = err
	if err == nil {
		s.lastSync = time.Now()
	}
	s.mu.Unlock()

	if err != nil {
		log.Printf("[audit] sync to %s failed: %v", s.key, err)
		return err
	}
	log.Printf("[audit] synced login database to %s", s.key)
	return nil
}

func (s *Syncer) sync(ctx context.Context) error {
	dir, err := os.MkdirTemp("", "shellsight-audit-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	snap := filepath.Join(dir, SnapshotFile)
	s.auditor.mu.RLock()
	err = database.Snapshot(s.auditor.db, snap)
	s.auditor.mu.RUnlock()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(snap)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	return s.store.PutObject(ctx, s.key, data)
}

// Status returns when the last successful sync happened and the error of
// the most recent attempt.
func (s *Syncer) Status() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync, s.lastErr
}

// Start schedules sync-and-purge runs on a cron spec such as "@every 5m".
func (s *Syncer) Start(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.auditor.PurgeOlderThan(0); err != nil {
			return
		}
		s.Sync(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule audit sync %q: %w", spec, err)
	}
	s.cron = c
	c.Start()
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Syncer) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
