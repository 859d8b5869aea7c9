// Package history persists conversation sessions to a local sqlite
// database. The agent loop owns the in-memory message list during a run;
// callers use this store to save the mutated history afterward and to pick
// a past session back up.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/atharv20s/vscode-cli/llm"
)

// Session is one saved conversation.
type Session struct {
	ID        string `gorm:"primaryKey"`
	Persona   string
	Model     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Record is one persisted message within a session.
type Record struct {
	ID         uint   `gorm:"primaryKey"`
	SessionID  string `gorm:"index;not null"`
	Seq        int    `gorm:"not null"`
	Role       string `gorm:"not null"`
	Content    string
	ToolCallID string
	ToolCalls  string // JSON-encoded []llm.ToolCall, empty when none
	CreatedAt  time.Time
}

// Store is a sqlite-backed session store.
type Store struct {
	db *gorm.DB
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.AutoMigrate(&Session{}, &Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save persists the full message list for a session, replacing any prior
// snapshot. Message order is preserved through the Seq column.
func (s *Store) Save(sessionID, persona, model string, messages []llm.Message) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		session := Session{ID: sessionID, Persona: persona, Model: model}
		if err := tx.Save(&session).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&Record{}).Error; err != nil {
			return err
		}
		for i, msg := range messages {
			rec := Record{
				SessionID:  sessionID,
				Seq:        i,
				Role:       string(msg.Role),
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			}
			if len(msg.ToolCalls) > 0 {
				encoded, err := json.Marshal(msg.ToolCalls)
				if err != nil {
					return fmt.Errorf("failed to encode tool calls: %w", err)
				}
				rec.ToolCalls = string(encoded)
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Load returns the saved message list for a session in original order.
func (s *Store) Load(sessionID string) ([]llm.Message, error) {
	var records []Record
	if err := s.db.Where("session_id = ?", sessionID).Find(&records).Error; err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })

	messages := make([]llm.Message, 0, len(records))
	for _, rec := range records {
		msg := llm.Message{
			Role:       llm.Role(rec.Role),
			Content:    rec.Content,
			ToolCallID: rec.ToolCallID,
		}
		if rec.ToolCalls != "" {
			if err := json.Unmarshal([]byte(rec.ToolCalls), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("failed to decode tool calls for session %s: %w", sessionID, err)
			}
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Sessions lists saved sessions, most recently updated first.
func (s *Store) Sessions() ([]Session, error) {
	var sessions []Session
	if err := s.db.Order("updated_at desc").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// Delete removes a session and its messages.
func (s *Store) Delete(sessionID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&Record{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Session{ID: sessionID}).Error
	})
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
