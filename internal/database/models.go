package database

import "time"

// LoginEvent is one row of the login audit table. A row is written the first
// time a browser session presents an identity.
type LoginEvent struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"not null;index;size:256" json:"username"`
	SessionID string    `gorm:"not null;size:64" json:"session_id"`
	SourceIP  string    `gorm:"size:64" json:"source_ip"`
	UserAgent string    `gorm:"size:512" json:"user_agent"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
