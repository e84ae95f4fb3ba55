package models

import "time"

// ChatRecord 聊天记录（单轮：用户输入 + AI输出），写入后不可变
type ChatRecord struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"size:36;index;not null"` // token subject，不做外键约束
	UserMessage string    `json:"user_message" gorm:"type:longtext;not null"`
	AIResponse  string    `json:"ai_response" gorm:"column:ai_response;type:longtext;not null"`
	Timestamp   time.Time `json:"timestamp" gorm:"index;not null"`
}

func (ChatRecord) TableName() string {
	return "chats"
}
