// Package main abricot 命令行：账户、项目、任务以及 AI 任务生成的审阅提交
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "abricot",
	Short:         "Abricot project and task management from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return app.init()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&app.backendURL, "backend", "", "backend base URL (overrides backend.base_url)")
	rootCmd.PersistentFlags().StringVar(&app.generateURL, "generate-url", "", "generation proxy URL (overrides backend.generate_url)")
	rootCmd.PersistentFlags().StringVar(&app.tokenPath, "token-file", "", "where the session token is stored")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, profileCmd, projectsCmd, tasksCmd)
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
