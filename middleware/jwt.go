package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chatrelay/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextUserIDKey gin 上下文中保存当前用户 ID 的键
const ContextUserIDKey = "userID"

// ErrInvalidToken token 无效、被篡改或已过期
var ErrInvalidToken = errors.New("invalid token")

// JWT 签发并校验 HS256 访问令牌，subject 为用户 ID
type JWT struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWT 创建 token 服务，启动时构建一次
func NewJWT(cfg config.JWTConfig) *JWT {
	ttl := cfg.ExpireTime
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWT{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// GenerateToken 为用户签发 token
func (j *JWT) GenerateToken(userID string) (string, error) {
	now := j.now()
	claims := jwt.RegisteredClaims{
		Issuer:    j.issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// ParseToken 校验签名、算法与过期时间并返回 claims
func (j *JWT) ParseToken(tokenString string) (*jwt.RegisteredClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// JWTAuth 校验 Authorization: Bearer <token>，失败时在进入业务处理前返回 401
func JWTAuth(j *JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or malformed authorization header"})
			return
		}

		claims, err := j.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ContextUserIDKey, claims.Subject)
		c.Next()
	}
}

// GetCurrentUserID 获取当前用户 ID，未认证时返回空字符串
func GetCurrentUserID(c *gin.Context) string {
	if v, ok := c.Get(ContextUserIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
