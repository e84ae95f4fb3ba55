package api

import (
	"context"

	"chatrelay/models"
)

// UserStore 凭据存储
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// ChatStore 聊天记录存储
type ChatStore interface {
	Create(ctx context.Context, record *models.ChatRecord) error
	ListRecent(ctx context.Context, userID string, limit int) ([]models.ChatRecord, error)
}

// TokenIssuer 签发以用户 ID 为 subject 的访问令牌
type TokenIssuer interface {
	GenerateToken(userID string) (string, error)
}

// Gateway 外部生成式 AI 调用
type Gateway interface {
	Converse(ctx context.Context, userMessage string) (string, error)
}

// Mailer 注册欢迎邮件，可为 nil
type Mailer interface {
	Enabled() bool
	SendWelcomeEmail(toEmail, name string) error
}
