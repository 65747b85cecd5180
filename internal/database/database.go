package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens (or creates) the sqlite database at dbPath and migrates it.
func Init(dbPath string) error {
	db, err := Open(dbPath, logger.Default.LogMode(logger.Warn))
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open opens a database without touching the package-level DB.
func Open(dbPath string, log logger.Interface) (*gorm.DB, error) {
	if dbDir := filepath.Dir(dbPath); dbDir != "" {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{Logger: log})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := db.AutoMigrate(&LoginEvent{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return db, nil
}

func Close() error {
	if DB != nil {
		sqlDB, err := DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// Snapshot writes a consistent copy of db to dest with VACUUM INTO, which
// includes pages still sitting in the WAL. dest must not exist.
func Snapshot(db *gorm.DB, dest string) error {
	if strings.ContainsRune(dest, '\'') {
		return fmt.Errorf("snapshot path %q must not contain quotes", dest)
	}
	if err := db.Exec(fmt.Sprintf("VACUUM INTO '%s'", dest)).Error; err != nil {
		return fmt.Errorf("vacuum into %s: %w", dest, err)
	}
	return nil
}

// Ping checks the database connection.
func Ping(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
