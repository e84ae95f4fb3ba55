package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatrelay/database"
	"chatrelay/middleware"
	"chatrelay/router"
	"chatrelay/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd 启动 HTTP 服务
func NewServeCmd(app *App) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := app.loadRuntime()
			if err != nil {
				return err
			}
			defer log.Sync()

			// 命令行参数覆盖端口配置
			if port != "" {
				cfg.Server.Port = normalizePort(port)
				log.Info("port overridden by flag", zap.String("port", cfg.Server.Port))
			}
			cfg.Print(log.Sugar())

			db, err := database.Open(cfg, log)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.Migrate(db); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r := router.SetupRouter(ctx, cfg, router.Dependencies{
				Users:   database.NewUserStore(db),
				Chats:   database.NewChatStore(db),
				Tokens:  middleware.NewJWT(cfg.JWT),
				Gateway: service.NewAIGateway(cfg.AI, log),
				Mailer:  service.NewEmailService(&cfg.Email),
				Logger:  log,
			})

			server := &http.Server{
				Addr:              cfg.Server.Port,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				log.Info("server started",
					zap.String("addr", cfg.Server.Port),
					zap.String("swagger", "/swagger/index.html"),
				)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})

			// 收到信号后在超时内优雅关闭
			g.Go(func() error {
				<-ctx.Done()
				log.Info("shutdown signal received")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})

			if err := g.Wait(); err != nil {
				return err
			}
			log.Info("server gracefully stopped")
			return nil
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "监听端口，如: 8080 或 :8080")

	return cmd
}
