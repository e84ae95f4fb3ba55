package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chatrelay/config"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// 固定的生成参数
const (
	MaxOutputTokens = 800
	Temperature     = 0.7
)

var (
	// ErrGatewayUnavailable 模型客户端在启动时未能初始化（如缺少密钥）
	ErrGatewayUnavailable = errors.New("AI gateway not configured properly")
	// ErrServiceError 远程调用失败
	ErrServiceError = errors.New("AI service error")
)

const promptTemplate = `You are a helpful AI assistant with access to the latest information and data. Provide clear, concise, and helpful responses. You have up-to-date knowledge and can help with current topics and recent developments.

User question: %s

Please provide a comprehensive and helpful response:`

const pingQuestion = "What are the latest developments in AI?"

// BuildPrompt 拼接固定指令与用户消息，不携带历史对话
func BuildPrompt(userMessage string) string {
	return fmt.Sprintf(promptTemplate, userMessage)
}

// AIGateway 封装对外部生成式文本接口的单次调用
type AIGateway struct {
	model llms.Model
	log   *zap.Logger
}

// NewAIGateway 按配置构建 OpenAI 兼容客户端；缺少密钥或构建失败时网关处于不可用状态
func NewAIGateway(cfg config.AIConfig, log *zap.Logger) *AIGateway {
	if cfg.APIKey == "" {
		log.Warn("ai gateway disabled: api key not set")
		return &AIGateway{log: log}
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		log.Error("ai gateway disabled: client init failed", zap.Error(err))
		return &AIGateway{log: log}
	}

	log.Info("ai gateway ready", zap.String("model", cfg.Model))
	return NewAIGatewayWithModel(llm, log)
}

// NewAIGatewayWithModel 使用已有的模型客户端
func NewAIGatewayWithModel(model llms.Model, log *zap.Logger) *AIGateway {
	return &AIGateway{model: model, log: log}
}

// Available 模型客户端是否可用
func (g *AIGateway) Available() bool {
	return g.model != nil
}

// Converse 发送一条用户消息并返回模型回复
func (g *AIGateway) Converse(ctx context.Context, userMessage string) (string, error) {
	if g.model == nil {
		return "", ErrGatewayUnavailable
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, g.model, BuildPrompt(userMessage),
		llms.WithMaxTokens(MaxOutputTokens),
		llms.WithTemperature(Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrServiceError, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty response", ErrServiceError)
	}
	return text, nil
}

// Ping 发送一个示例问题，用于检查密钥与网络是否正常
func (g *AIGateway) Ping(ctx context.Context) (string, error) {
	return g.Converse(ctx, pingQuestion)
}
