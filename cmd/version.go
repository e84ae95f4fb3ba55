package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCmd 输出版本信息
func NewVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chatrelay %s\n", version)
		},
	}
}
