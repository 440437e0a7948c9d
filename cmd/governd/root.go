package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/union-dao/governance-kernel/pkg/config"
	"github.com/union-dao/governance-kernel/pkg/utils"
)

var cfg *config.Config

func rootInit(cmd *cobra.Command, _ []string) error {
	env := utils.EnvOrDefault("GOVERND_ENV", "")
	loaded, err := config.Load(env)
	if err != nil {
		return utils.Wrap(err, "load governd config")
	}
	cfg = loaded

	level, err := logrus.ParseLevel(utils.EnvOrDefault("GOVERND_LOG_LEVEL", cfg.Logging.Level))
	if err == nil {
		logrus.SetLevel(level)
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:               "governd",
	Short:             "Operate a governance kernel node",
	PersistentPreRunE: rootInit,
}

func init() {
	viper.AutomaticEnv()
	rootCmd.AddCommand(serveCmd, proposeCmd, voteCmd, executeCmd, mintCmd, policyCmd)
}
