package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"chatrelay/config"
	"chatrelay/database"
	"chatrelay/middleware"
	"chatrelay/models"
	"chatrelay/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memUserStore 内存用户存储，email 唯一
type memUserStore struct {
	mu      sync.Mutex
	seq     int
	byEmail map[string]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byEmail: map[string]*models.User{}}
}

func (s *memUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byEmail[email]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, database.ErrUserNotFound
}

func (s *memUserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[user.Email]; ok {
		return database.ErrDuplicateEmail
	}
	s.seq++
	user.ID = fmt.Sprintf("user-%d", s.seq)
	cp := *user
	s.byEmail[user.Email] = &cp
	return nil
}

// memChatStore 内存聊天存储，按写入顺序倒序返回
type memChatStore struct {
	mu      sync.Mutex
	records []models.ChatRecord
}

func (s *memChatStore) Create(ctx context.Context, record *models.ChatRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *record)
	return nil
}

func (s *memChatStore) ListRecent(ctx context.Context, userID string, limit int) ([]models.ChatRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := []models.ChatRecord{}
	for i := len(s.records) - 1; i >= 0 && len(list) < limit; i-- {
		if s.records[i].UserID == userID {
			list = append(list, s.records[i])
		}
	}
	return list, nil
}

func (s *memChatStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

type echoGateway struct {
	mu    sync.Mutex
	calls int
}

func (g *echoGateway) Converse(ctx context.Context, userMessage string) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	return "echo: " + userMessage, nil
}

type testServer struct {
	router  *gin.Engine
	tokens  *middleware.JWT
	chats   *memChatStore
	gateway *echoGateway
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Mode: gin.TestMode},
		JWT:    config.JWTConfig{Secret: "router-test-secret", Issuer: "chatrelay", ExpireTime: time.Hour},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	s := &testServer{
		tokens:  middleware.NewJWT(cfg.JWT),
		chats:   &memChatStore{},
		gateway: &echoGateway{},
	}
	s.router = SetupRouter(t.Context(), cfg, Dependencies{
		Users:   newMemUserStore(),
		Chats:   s.chats,
		Tokens:  s.tokens,
		Gateway: s.gateway,
		Logger:  zap.NewNop(),
	})
	return s
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type authBody struct {
	Message     string            `json:"message"`
	AccessToken string            `json:"access_token"`
	User        models.PublicUser `json:"user"`
}

func decodeAuth(t *testing.T, w *httptest.ResponseRecorder) authBody {
	t.Helper()
	var b authBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b
}

func (s *testServer) register(t *testing.T) authBody {
	t.Helper()
	w := s.do("POST", "/api/register", `{"email":"a@b.com","password":"pw123456","name":"A"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeAuth(t, w)
}

func TestRegisterTwice(t *testing.T) {
	s := newTestServer(t, testConfig())

	first := s.register(t)
	assert.Equal(t, "a@b.com", first.User.Email)
	assert.Equal(t, "A", first.User.Name)

	w := s.do("POST", "/api/register", `{"email":"a@b.com","password":"other","name":"B"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"User already exists"}`, w.Body.String())
}

func TestLoginTokenSubject(t *testing.T) {
	s := newTestServer(t, testConfig())
	reg := s.register(t)

	w := s.do("POST", "/api/login", `{"email":"a@b.com","password":"pw123456"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	login := decodeAuth(t, w)

	claims, err := s.tokens.ParseToken(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.Subject)
	assert.Equal(t, reg.User, login.User)
}

func TestLoginFailuresIndistinguishable(t *testing.T) {
	s := newTestServer(t, testConfig())
	s.register(t)

	wrong := s.do("POST", "/api/login", `{"email":"a@b.com","password":"nope"}`, "")
	unknown := s.do("POST", "/api/login", `{"email":"nobody@b.com","password":"pw123456"}`, "")

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.Bytes(), unknown.Body.Bytes())
}

func TestProfileTokenChecks(t *testing.T) {
	s := newTestServer(t, testConfig())
	reg := s.register(t)

	w := s.do("GET", "/api/profile", "", reg.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"user":{"id":%q,"name":"A","email":"a@b.com"}}`, reg.User.ID), w.Body.String())

	parts := strings.Split(reg.AccessToken, ".")
	payload := []byte(parts[1])
	if payload[0] == 'e' {
		payload[0] = 'f'
	} else {
		payload[0] = 'e'
	}
	tampered := strings.Join([]string{parts[0], string(payload), parts[2]}, ".")

	for name, token := range map[string]string{
		"tampered":  tampered,
		"truncated": reg.AccessToken[:len(reg.AccessToken)-10],
		"garbage":   "not-a-token",
	} {
		w := s.do("GET", "/api/profile", "", token)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
		assert.Contains(t, w.Body.String(), `"error"`, name)
	}

	w = s.do("GET", "/api/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChatAndHistory(t *testing.T) {
	s := newTestServer(t, testConfig())
	token := s.register(t).AccessToken

	for i := 0; i < 60; i++ {
		w := s.do("POST", "/api/chat", fmt.Sprintf(`{"message":"msg %d"}`, i), token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, fmt.Sprintf(`{"response":"echo: msg %d"}`, i), w.Body.String())
	}

	w := s.do("GET", "/api/chat-history", "", token)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Chats []models.ChatRecord `json:"chats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Chats, 50)
	// 最近 50 条，最新在前
	assert.Equal(t, "msg 59", body.Chats[0].UserMessage)
	assert.Equal(t, "echo: msg 59", body.Chats[0].AIResponse)
	assert.Equal(t, "msg 10", body.Chats[49].UserMessage)
	for i := 1; i < len(body.Chats); i++ {
		assert.False(t, body.Chats[i].Timestamp.After(body.Chats[i-1].Timestamp))
	}
}

func TestChatEmptyMessage(t *testing.T) {
	s := newTestServer(t, testConfig())
	token := s.register(t).AccessToken

	w := s.do("POST", "/api/chat", `{"message":""}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Message is required"}`, w.Body.String())
	assert.Zero(t, s.gateway.calls)
	assert.Zero(t, s.chats.count())
}

func TestChatRequiresToken(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := s.do("POST", "/api/chat", `{"message":"hi"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do("GET", "/api/chat-history", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, s.gateway.calls)
}

func TestChatGatewayUnconfigured(t *testing.T) {
	cfg := testConfig()
	users := newMemUserStore()
	tokens := middleware.NewJWT(cfg.JWT)
	r := SetupRouter(t.Context(), cfg, Dependencies{
		Users:   users,
		Chats:   &memChatStore{},
		Tokens:  tokens,
		Gateway: service.NewAIGateway(config.AIConfig{}, zap.NewNop()),
		Logger:  zap.NewNop(),
	})

	token, err := tokens.GenerateToken("user-1")
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/chat", bytes.NewBufferString(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"AI gateway not configured properly"}`, w.Body.String())
}

func TestExportHistory(t *testing.T) {
	s := newTestServer(t, testConfig())
	token := s.register(t).AccessToken
	require.Equal(t, http.StatusOK, s.do("POST", "/api/chat", `{"message":"hi"}`, token).Code)

	w := s.do("GET", "/api/chat-history/export", "", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "chat_history_")
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestAuthRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{LoginAttempts: 2, Window: time.Minute}
	s := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		w := s.do("POST", "/api/login", `{"email":"x@b.com","password":"pw"}`, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := s.do("POST", "/api/login", `{"email":"x@b.com","password":"pw"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"Too many attempts, please try again later"}`, w.Body.String())
}

// loginFrom 以指定连接地址和 X-Forwarded-For 发起登录
func (s *testServer) loginFrom(remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest("POST", "/api/login", bytes.NewBufferString(`{"email":"x@b.com","password":"pw"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w.Code
}

func TestAuthRateLimited_SpoofedForwardedFor(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{LoginAttempts: 2, Window: time.Minute}
	s := newTestServer(t, cfg)

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		codes = append(codes, s.loginFrom("198.51.100.9:40000", fmt.Sprintf("10.0.0.%d", i)))
	}
	assert.Equal(t, []int{
		http.StatusUnauthorized,
		http.StatusUnauthorized,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
	}, codes)
}

func TestAuthRateLimited_TrustedProxy(t *testing.T) {
	cfg := testConfig()
	cfg.Server.TrustedProxies = []string{"198.51.100.0/24"}
	cfg.RateLimit = config.RateLimitConfig{LoginAttempts: 2, Window: time.Minute}
	s := newTestServer(t, cfg)

	// 经可信代理转发时按真实客户端计数
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusUnauthorized, s.loginFrom("198.51.100.9:40000", fmt.Sprintf("10.0.0.%d", i)))
	}
	assert.Equal(t, http.StatusUnauthorized, s.loginFrom("198.51.100.9:40000", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, s.loginFrom("198.51.100.9:40000", "10.0.0.1"))
}

func TestAuthRateLimited_InvalidTrustedProxies(t *testing.T) {
	cfg := testConfig()
	cfg.Server.TrustedProxies = []string{"not-an-ip"}
	cfg.RateLimit = config.RateLimitConfig{LoginAttempts: 1, Window: time.Minute}
	s := newTestServer(t, cfg)

	assert.Equal(t, http.StatusUnauthorized, s.loginFrom("198.51.100.9:40000", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, s.loginFrom("198.51.100.9:40000", "10.0.0.2"))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, testConfig())

	req := httptest.NewRequest("OPTIONS", "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := s.do("GET", "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}
