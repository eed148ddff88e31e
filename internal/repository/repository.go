// Package repository persists journal entries. Signed URLs are never stored:
// they are minted per session from the image path.
package repository

import (
	"context"
	"errors"
	"fmt"
	"github.com/Borislavv/go-ash-urlcache/model"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"time"
)

var ErrNotFound = errors.New("journal entry not found")

// JournalEntry is a row of the journal_entries table.
type JournalEntry struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"column:user_id;index;not null"`
	ParkID    string    `gorm:"column:park_id;not null"`
	VisitDate string    `gorm:"column:visit_date;not null"`
	Notes     string    `gorm:"column:notes"`
	ImagePath string    `gorm:"column:image_path"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (JournalEntry) TableName() string {
	return "journal_entries"
}

func (e JournalEntry) toModel() model.Entry {
	return model.Entry{
		ID:        e.ID,
		ParkID:    e.ParkID,
		VisitDate: e.VisitDate,
		Notes:     e.Notes,
		ObjectKey: e.ImagePath,
		CreatedAt: e.CreatedAt,
	}
}

type Repository struct {
	db *gorm.DB
}

// Open connects to the sqlite database at dsn (":memory:" for an in-memory one)
// and migrates the schema.
func Open(dsn string) (*Repository, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	if dsn == ":memory:" {
		// every connection would get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err = db.AutoMigrate(&JournalEntry{}); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", dsn, err)
	}
	return &Repository{db: db}, nil
}

// ListByUser returns the entries of the user, latest visit first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]model.Entry, error) {
	var rows []JournalEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("visit_date DESC").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list entries of %s: %w", userID, err)
	}

	entries := make([]model.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toModel())
	}
	return entries, nil
}

// Create stores a new entry of the user and returns it as stored.
func (r *Repository) Create(ctx context.Context, userID string, e model.Entry) (model.Entry, error) {
	row := JournalEntry{
		ID:        e.ID,
		UserID:    userID,
		ParkID:    e.ParkID,
		VisitDate: e.VisitDate,
		Notes:     e.Notes,
		ImagePath: e.ObjectKey,
		CreatedAt: e.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.Entry{}, fmt.Errorf("create entry %s: %w", e.ID, err)
	}
	return row.toModel(), nil
}

// Delete removes an entry of the user.
func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&JournalEntry{ID: id})
	if res.Error != nil {
		return fmt.Errorf("delete entry %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
