package repository

import (
	"fmt"

	"gorm.io/gorm"

	"lecture-qa/internal/model"
)

type ChatEntryRepository struct {
	db *gorm.DB
}

func NewChatEntryRepository(db *gorm.DB) *ChatEntryRepository {
	return &ChatEntryRepository{db: db}
}

func (r *ChatEntryRepository) Create(entry *model.ChatEntry) error {
	entry.Encode()
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("create chat entry failed: %w", err)
	}
	return nil
}

// ListBySessionID returns the latest limit entries of a session, oldest first.
func (r *ChatEntryRepository) ListBySessionID(sessionID string, limit int) ([]model.ChatEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var entries []model.ChatEntry
	if err := r.db.Where("session_id = ?", sessionID).Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list chat entries failed: %w", err)
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	for i := range entries {
		entries[i].Decode()
	}
	return entries, nil
}

func (r *ChatEntryRepository) CountBySessionID(sessionID string) (int64, error) {
	var count int64
	if err := r.db.Model(&model.ChatEntry{}).Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count chat entries failed: %w", err)
	}
	return count, nil
}

func (r *ChatEntryRepository) DeleteBySessionID(sessionID string) error {
	if err := r.db.Where("session_id = ?", sessionID).Delete(&model.ChatEntry{}).Error; err != nil {
		return fmt.Errorf("delete chat entries failed: %w", err)
	}
	return nil
}
