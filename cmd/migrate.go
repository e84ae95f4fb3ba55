package cmd

import (
	"fmt"

	"chatrelay/database"

	"github.com/spf13/cobra"
)

// NewMigrateCmd 创建数据表与索引后退出
func NewMigrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "创建 users / chats 表及索引",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := app.loadRuntime()
			if err != nil {
				return err
			}
			defer log.Sync()

			db, err := database.Open(cfg, log)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "database schema is up to date")
			return nil
		},
	}
}
