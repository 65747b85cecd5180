package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Settings struct {
	ListenAddr   string `envconfig:"LISTEN_ADDR" default:":8000"`
	DataPath     string `envconfig:"DATA_PATH" default:"/app/data"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"/app/data/shellsight.db"`
	LogPath      string `envconfig:"LOG_PATH" default:"/app/data/shellsight.log"`

	// Object store holding recordings
	StoreBackend string `envconfig:"STORE_BACKEND" default:"file"` // "file" or "s3"
	StoreDir     string `envconfig:"STORE_DIR" default:"/app/data/recordings"`
	S3Bucket     string `envconfig:"S3_BUCKET" default:""`
	S3Region     string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint   string `envconfig:"S3_ENDPOINT" default:""`
	KeyPrefix    string `envconfig:"KEY_PREFIX" default:""`

	// Identity is asserted by the OAuth proxy in front of the service
	PerUserRecordings bool     `envconfig:"PER_USER_RECORDINGS" default:"false"`
	IdentityHeader    string   `envconfig:"IDENTITY_HEADER" default:"X-Forwarded-User"`
	AdminUsers        []string `envconfig:"ADMIN_USERS" default:""`
	AuthDisabled      bool     `envconfig:"AUTH_DISABLED" default:"false"`

	// Replay settings
	DefaultSpeed       float64 `envconfig:"DEFAULT_SPEED" default:"1"`
	MaxSpeed           float64 `envconfig:"MAX_SPEED" default:"64"`
	RecordingCacheSize int     `envconfig:"RECORDING_CACHE_SIZE" default:"32"`

	// Login audit
	AuditSyncSchedule  string `envconfig:"AUDIT_SYNC_SCHEDULE" default:"@every 5m"`
	AuditRetentionDays int    `envconfig:"AUDIT_RETENTION_DAYS" default:"90"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

var Cfg Settings

func Load() {
	if err := envconfig.Process("SHELLSIGHT", &Cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
}

// IsAdmin reports whether user is listed in ADMIN_USERS.
func (s Settings) IsAdmin(user string) bool {
	for _, u := range s.AdminUsers {
		if u == user {
			return true
		}
	}
	return false
}
