package cmd

import (
	"context"
	"fmt"
	"time"

	"chatrelay/service"

	"github.com/spf13/cobra"
)

const (
	pingTimeout    = 30 * time.Second
	previewMaxRune = 100
)

// NewPingAICmd 发送示例问题检查 AI 密钥与网络
func NewPingAICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ping-ai",
		Short: "检查 AI 接口是否可用",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := app.loadRuntime()
			if err != nil {
				return err
			}
			defer log.Sync()

			gw := service.NewAIGateway(cfg.AI, log)
			if !gw.Available() {
				return service.ErrGatewayUnavailable
			}

			ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
			defer cancel()

			reply, err := gw.Ping(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "model=%s\nresponse=%s\n", cfg.AI.Model, preview(reply, previewMaxRune))
			return nil
		},
	}
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
