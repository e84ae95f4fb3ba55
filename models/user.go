package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 用户模型，注册后不再修改
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Name         string    `json:"name" gorm:"size:100;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:191;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;size:255;not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}

// BeforeCreate 插入前生成不透明的用户 ID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// PublicUser 对外返回的用户字段（不含密码哈希）
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public 转换为对外字段
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}
