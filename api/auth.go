package api

import (
	"errors"
	"net/http"
	"sync"

	"chatrelay/config"
	"chatrelay/database"
	"chatrelay/middleware"
	"chatrelay/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const msgInvalidCredentials = "Invalid credentials"

// 邮箱不存在时也做一次 bcrypt 比较，使两种失败的耗时接近
var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

func getDummyHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("chatrelay-dummy-password"), bcrypt.DefaultCost)
	})
	return dummyHash
}

// AuthHandler 认证处理器
type AuthHandler struct {
	cfg    *config.Config
	users  UserStore
	tokens TokenIssuer
	mailer Mailer
	log    *zap.Logger
}

// NewAuthHandler 创建认证处理器，mailer 可为 nil
func NewAuthHandler(cfg *config.Config, users UserStore, tokens TokenIssuer, mailer Mailer, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		cfg:    cfg,
		users:  users,
		tokens: tokens,
		mailer: mailer,
		log:    log,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,max=191" example:"a@b.com"`
	Password string `json:"password" binding:"required" example:"pw123456"`
	Name     string `json:"name" binding:"required,max=100" example:"A"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"a@b.com"`
	Password string `json:"password" binding:"required" example:"pw123456"`
}

// AuthResponse 注册/登录响应
type AuthResponse struct {
	Message     string            `json:"message"`
	AccessToken string            `json:"access_token"`
	User        models.PublicUser `json:"user"`
}

// ProfileResponse 用户信息响应
type ProfileResponse struct {
	User models.PublicUser `json:"user"`
}

// Register 用户注册
// @Summary 用户注册
// @Description 创建账号并返回访问令牌。邮箱唯一，重复注册返回 400。
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册信息"
// @Success 201 {object} AuthResponse "注册成功"
// @Failure 400 {object} ErrorResponse "参数缺失、超长或邮箱已存在"
// @Failure 429 {object} ErrorResponse "请求过于频繁"
// @Failure 500 {object} ErrorResponse "服务器错误"
// @Router /api/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if fieldTooLong(err) {
			BadRequest(c, "Name or email is too long")
			return
		}
		BadRequest(c, "All fields are required")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			BadRequest(c, "Password is too long")
			return
		}
		h.log.Error("hash password", zap.Error(err))
		InternalError(c, h.cfg.SafeErrorMessage(err, "Failed to create user"))
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
	}
	if err := h.users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			BadRequest(c, "User already exists")
			return
		}
		h.log.Error("create user", zap.Error(err))
		InternalError(c, h.cfg.SafeErrorMessage(err, "Failed to create user"))
		return
	}

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		h.log.Error("generate token", zap.Error(err))
		InternalError(c, h.cfg.SafeErrorMessage(err, "Failed to generate token"))
		return
	}

	h.sendWelcome(user)

	c.JSON(http.StatusCreated, AuthResponse{
		Message:     "User registered successfully",
		AccessToken: token,
		User:        user.Public(),
	})
}

// fieldTooLong 校验失败仅由长度上限触发（字段均已填写）
func fieldTooLong(err error) bool {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return false
	}
	tooLong := false
	for _, fe := range ve {
		switch fe.Tag() {
		case "max":
			tooLong = true
		default:
			return false
		}
	}
	return tooLong
}

// sendWelcome 后台发送欢迎邮件，失败只记录日志
func (h *AuthHandler) sendWelcome(user models.User) {
	if h.mailer == nil || !h.mailer.Enabled() {
		return
	}
	go func(email, name string) {
		if err := h.mailer.SendWelcomeEmail(email, name); err != nil {
			h.log.Warn("send welcome email", zap.String("email", email), zap.Error(err))
		}
	}(user.Email, user.Name)
}

// Login 用户登录
// @Summary 用户登录
// @Description 邮箱密码登录获取访问令牌。邮箱不存在与密码错误返回相同的 401。
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} AuthResponse "登录成功"
// @Failure 400 {object} ErrorResponse "参数缺失"
// @Failure 401 {object} ErrorResponse "邮箱或密码错误"
// @Failure 429 {object} ErrorResponse "请求过于频繁"
// @Failure 500 {object} ErrorResponse "服务器错误"
// @Router /api/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Email and password are required")
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(getDummyHash(), []byte(req.Password))
			Unauthorized(c, msgInvalidCredentials)
			return
		}
		h.log.Error("find user", zap.Error(err))
		InternalError(c, h.cfg.SafeErrorMessage(err, "Login failed"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		Unauthorized(c, msgInvalidCredentials)
		return
	}

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		h.log.Error("generate token", zap.Error(err))
		InternalError(c, h.cfg.SafeErrorMessage(err, "Failed to generate token"))
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Message:     "Login successful",
		AccessToken: token,
		User:        user.Public(),
	})
}

// GetProfile 获取当前用户信息
// @Summary 获取当前用户信息
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProfileResponse "获取成功"
// @Failure 401 {object} ErrorResponse "未授权"
// @Failure 404 {object} ErrorResponse "用户不存在"
// @Failure 500 {object} ErrorResponse "服务器错误"
// @Router /api/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	user, err := h.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			NotFound(c, "User not found")
			return
		}
		h.log.Error("find user", zap.Error(err))
		InternalError(c, h.cfg.SafeErrorMessage(err, "Failed to load profile"))
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{User: user.Public()})
}
