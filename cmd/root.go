// Package cmd 命令行入口：serve / migrate / ping-ai / version
package cmd

import (
	"fmt"
	"os"
	"strings"

	"chatrelay/config"
	"chatrelay/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App 各子命令共享的状态
type App struct {
	// ConfigPath 外部配置文件路径，为空时按默认目录查找
	ConfigPath string
}

// NewRootCmd 创建根命令并注册子命令
func NewRootCmd(version string) *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:   "chatrelay",
		Short: "认证聊天中继服务",
		Long: `chatrelay 提供注册登录、AI 聊天转发与聊天记录查询。

示例:
  chatrelay serve -c ./config.yaml -p 8080
  chatrelay migrate
  chatrelay ping-ai
`,
		SilenceUsage: true,
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().StringVarP(&app.ConfigPath, "config", "c", "", "外部配置文件路径（可选）")

	cmd.AddCommand(NewServeCmd(app))
	cmd.AddCommand(NewMigrateCmd(app))
	cmd.AddCommand(NewPingAICmd(app))
	cmd.AddCommand(NewVersionCmd(version))

	return cmd
}

// Execute 执行命令，失败时以状态码 1 退出
func Execute(version string) {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadRuntime 加载配置并按配置构建日志器
func (a *App) loadRuntime() (*config.Config, *zap.Logger, error) {
	boot := logger.Must("debug", config.LogConfig{})
	defer boot.Sync()

	cfg, err := config.LoadConfig(a.ConfigPath, boot.Sugar())
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Server.Mode, cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

// normalizePort 自动添加冒号前缀
func normalizePort(port string) string {
	if port == "" || strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}
