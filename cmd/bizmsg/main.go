package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/loykin/bizmsg/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	v := config.New()

	rootCmd := &cobra.Command{
		Use:           "bizmsg",
		Short:         "Fetch authenticated user data and send business chat messages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	// Environment variables support: BIZMSG_CONFIG, BIZMSG_TOKEN, ...
	rootCmd.PersistentFlags().String("config", "", "path to a config yaml (see config/config.example.yaml)")
	_ = v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.AddCommand(newUserDataCmd(v))
	rootCmd.AddCommand(newQuickReplyCmd(v))
	return rootCmd
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	_ = v.BindPFlag(key, cmd.Flags().Lookup(flag))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		exitHandler.LogFatalError(err, "command execution failed")
	}
}
