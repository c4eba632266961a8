// Package audit journals channel list changes to a local sqlite
// database. Ban lists answer "what is set"; the journal answers "what
// happened": who set or removed which mask, when, and whether the change
// came from a live MODE or a list sync.
package audit

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/presbrey/ircstate"
)

// ListChange is one journaled mutation
type ListChange struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Channel   string    `gorm:"index" json:"channel"`
	Mode      string    `json:"mode"`
	Action    string    `json:"action"`
	Mask      string    `json:"mask"`
	Setter    string    `json:"setter"`
	Timestamp int64     `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// Recorder persists list changes. It implements ircstate.ChangeListener
// and can be handed straight to ircstate.WithChangeListener.
type Recorder struct {
	db *gorm.DB
}

// Open opens or creates the journal database at path. The sqlite
// ":memory:" DSN works for tests.
func Open(path string) (*Recorder, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open audit db: %w", err)
	}
	if err := db.AutoMigrate(&ListChange{}); err != nil {
		return nil, fmt.Errorf("failed to migrate audit db: %w", err)
	}
	return &Recorder{db: db}, nil
}

// ListChanged journals one change. Runs on the dispatch goroutine, so a
// failed write is logged rather than returned; tracking must not stall
// on the journal.
func (r *Recorder) ListChanged(ev ircstate.ListChange) {
	rec := ListChange{
		ID:        uuid.New().String(),
		Channel:   ev.Channel,
		Mode:      string(ev.Mode),
		Action:    string(ev.Action),
		Mask:      ev.Entry.Mask,
		Setter:    ev.Entry.Setter.String(),
		Timestamp: ev.Entry.Timestamp,
	}
	if err := r.db.Create(&rec).Error; err != nil {
		log.Printf("[audit] failed to record %s %s on %s: %v", rec.Action, rec.Mask, rec.Channel, err)
	}
}

// Recent returns journaled changes, newest first. An empty channel means
// all channels; limit <= 0 means no limit.
func (r *Recorder) Recent(channel string, limit int) ([]ListChange, error) {
	q := r.db.Order("created_at desc")
	if channel != "" {
		q = q.Where("channel = ?", channel)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []ListChange
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query audit db: %w", err)
	}
	return out, nil
}

// Close closes the underlying database
func (r *Recorder) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
