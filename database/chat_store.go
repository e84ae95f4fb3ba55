package database

import (
	"context"
	"fmt"

	"chatrelay/models"

	"gorm.io/gorm"
)

// ChatStore 聊天记录存储
type ChatStore struct {
	db *gorm.DB
}

func NewChatStore(db *gorm.DB) *ChatStore {
	return &ChatStore{db: db}
}

// Create 写入一条聊天记录
func (s *ChatStore) Create(ctx context.Context, record *models.ChatRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("create chat record: %w", err)
	}
	return nil
}

// ListRecent 按时间倒序返回用户最近的 limit 条记录
func (s *ChatStore) ListRecent(ctx context.Context, userID string, limit int) ([]models.ChatRecord, error) {
	list := []models.ChatRecord{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list chat records: %w", err)
	}
	return list, nil
}
