package api

import (
	"context"
	"testing"
	"time"

	"chatrelay/config"
	"chatrelay/database"
	"chatrelay/middleware"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var userColumns = []string{"id", "name", "email", "password_hash", "created_at"}
var chatColumns = []string{"id", "user_id", "user_message", "ai_response", "timestamp"}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	return gormDB, mock
}

func testConfig(mode string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: mode},
		JWT:    config.JWTConfig{Secret: "test-secret", Issuer: "chatrelay", ExpireTime: time.Hour},
	}
}

func newAuthTestHandler(t *testing.T, mode string) (*AuthHandler, *middleware.JWT, sqlmock.Sqlmock) {
	db, mock := setupMockDB(t)
	cfg := testConfig(mode)
	tokens := middleware.NewJWT(cfg.JWT)
	return NewAuthHandler(cfg, database.NewUserStore(db), tokens, nil, zap.NewNop()), tokens, mock
}

// setUserIDMiddleware 模拟 JWTAuth 写入当前用户
func setUserIDMiddleware(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, userID)
		c.Next()
	}
}

type fakeGateway struct {
	reply string
	err   error
	calls int
	last  string
}

func (f *fakeGateway) Converse(ctx context.Context, userMessage string) (string, error) {
	f.calls++
	f.last = userMessage
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}
