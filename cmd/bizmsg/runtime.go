package main

import (
	"github.com/loykin/bizmsg/internal/common"
	"github.com/loykin/bizmsg/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadRuntime loads and validates the config, then installs the configured
// logger writing to the command's stdout (or stderr with logging.output).
func loadRuntime(cmd *cobra.Command, v *viper.Viper) (*config.Config, *common.Logger, error) {
	cfg, err := config.LoadWith(v, v.GetString("config"))
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := cfg.SetupLogging(cfg.LogWriter(cmd.OutOrStdout(), cmd.ErrOrStderr()))
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
