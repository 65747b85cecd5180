package audit

import (
	"log"
	"sync"
	"time"

	"github.com/nyrahul/shellsight/internal/database"
	"github.com/nyrahul/shellsight/internal/logutil"
	"gorm.io/gorm"
)

// DefaultRetentionDays is the default number of days to keep login events.
const DefaultRetentionDays = 90

// LoginEntry contains the fields needed to record a login.
type LoginEntry struct {
	Username  string
	SessionID string
	SourceIP  string
	UserAgent string
}

// Auditor records and queries login events. It writes to the database and
// also emits log lines.
type Auditor struct {
	mu            sync.RWMutex
	db            *gorm.DB
	retentionDays int
	nowFn         func() time.Time // injectable clock for testing
}

// NewAuditor creates an Auditor writing to db. If retentionDays is 0,
// DefaultRetentionDays is used.
func NewAuditor(db *gorm.DB, retentionDays int) *Auditor {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Auditor{
		db:            db,
		retentionDays: retentionDays,
		nowFn:         time.Now,
	}
}

// DB returns the underlying database.
func (a *Auditor) DB() *gorm.DB { return a.db }

// LogLogin records a login event.
func (a *Auditor) LogLogin(entry LoginEntry) error {
	record := database.LoginEvent{
		Username:  entry.Username,
		SessionID: entry.SessionID,
		SourceIP:  entry.SourceIP,
		UserAgent: entry.UserAgent,
		CreatedAt: a.nowFn(),
	}

	a.mu.Lock()
	err := a.db.Create(&record).Error
	a.mu.Unlock()
	if err != nil {
		log.Printf("[audit] failed to write login event: %v", err)
		return err
	}

	log.Printf("[audit] login user=%s ip=%s session=%s",
		logutil.SanitizeForLog(entry.Username),
		entry.SourceIP,
		entry.SessionID,
	)
	return nil
}

// QueryOptions specifies filters for retrieving login events.
type QueryOptions struct {
	Username string
	Since    *time.Time
	Until    *time.Time
	Limit    int
	Offset   int
}

// QueryResult contains login events and pagination metadata.
type QueryResult struct {
	Entries []database.LoginEvent `json:"entries"`
	Total   int64                 `json:"total"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

// Query retrieves login events matching opts, newest first.
func (a *Auditor) Query(opts QueryOptions) (*QueryResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	tx := a.db.Model(&database.LoginEvent{})

	if opts.Username != "" {
		tx = tx.Where("username = ?", opts.Username)
	}
	if opts.Since != nil {
		tx = tx.Where("created_at >= ?", *opts.Since)
	}
	if opts.Until != nil {
		tx = tx.Where("created_at <= ?", *opts.Until)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Limit > 1000 {
		opts.Limit = 1000
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	var entries []database.LoginEvent
	if err := tx.Order("created_at DESC").Order("id DESC").Offset(opts.Offset).Limit(opts.Limit).Find(&entries).Error; err != nil {
		return nil, err
	}

	return &QueryResult{
		Entries: entries,
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	}, nil
}

// PurgeOlderThan removes login events older than days, or the configured
// retention period when days <= 0. Returns the number of rows deleted.
func (a *Auditor) PurgeOlderThan(days int) (int64, error) {
	if days <= 0 {
		days = a.retentionDays
	}
	cutoff := a.nowFn().AddDate(0, 0, -days)

	a.mu.Lock()
	result := a.db.Where("created_at < ?", cutoff).Delete(&database.LoginEvent{})
	a.mu.Unlock()
	if result.Error != nil {
		log.Printf("[audit] purge failed: %v", result.Error)
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("[audit] purged %d login events older than %d days", result.RowsAffected, days)
	}
	return result.RowsAffected, nil
}

// RetentionDays returns the configured retention period.
func (a *Auditor) RetentionDays() int {
	return a.retentionDays
}

// SetNowFunc sets the clock function used for testing.
func (a *Auditor) SetNowFunc(fn func() time.Time) {
	a.nowFn = fn
}
