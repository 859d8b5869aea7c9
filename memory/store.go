// Package memory provides the persistent key/value memory store backing the
// agent's memory tools. Entries survive across sessions in a local sqlite
// database.
package memory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Entry is one remembered fact.
type Entry struct {
	ID        uint   `gorm:"primaryKey"`
	Key       string `gorm:"uniqueIndex;not null"`
	Value     string `gorm:"not null"`
	Category  string `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is a sqlite-backed memory store.
type Store struct {
	db *gorm.DB
}

// Open creates or opens the memory database at path, creating parent
// directories and migrating the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create memory directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open memory database: %w", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate memory schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Remember stores or updates a fact under key.
func (s *Store) Remember(key, value, category string) error {
	if key == "" {
		return errors.New("key is required")
	}
	entry := Entry{Key: key, Value: value, Category: category}
	return s.db.
		Where(Entry{Key: key}).
		Assign(Entry{Value: value, Category: category}).
		FirstOrCreate(&entry).Error
}

// Recall returns the value stored under key, reporting whether it exists.
func (s *Store) Recall(key string) (string, bool, error) {
	var entry Entry
	err := s.db.Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

// List returns all entries, optionally filtered by category, newest first.
func (s *Store) List(category string) ([]Entry, error) {
	var entries []Entry
	q := s.db.Order("updated_at desc")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Forget removes the entry under key, reporting whether it existed.
func (s *Store) Forget(key string) (bool, error) {
	res := s.db.Where("key = ?", key).Delete(&Entry{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
