// Package config provides a reusable loader for a governance kernel node's
// configuration files and environment variables.
//
// Version: v0.1.0
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/union-dao/governance-kernel/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for a governd node: its own
// identity, the addresses of the actors it hosts or talks to, and RPC/
// logging tuning.
type Config struct {
	Node struct {
		Principal string `mapstructure:"principal" json:"principal"`
		ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
	} `mapstructure:"node" json:"node"`

	Actors struct {
		FungibleToken     string `mapstructure:"fungible_token" json:"fungible_token"`
		ClaimToken        string `mapstructure:"claim_token" json:"claim_token"`
		SharesToken       string `mapstructure:"shares_token" json:"shares_token"`
		VotingPowerLedger string `mapstructure:"voting_power_ledger" json:"voting_power_ledger"`
		VotingManager     string `mapstructure:"voting_manager" json:"voting_manager"`
		WalletExecutor    string `mapstructure:"wallet_executor" json:"wallet_executor"`
	} `mapstructure:"actors" json:"actors"`

	RPC struct {
		TimeoutMS int `mapstructure:"timeout_ms" json:"timeout_ms"`
	} `mapstructure:"rpc" json:"rpc"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment-specific
// overrides. The resulting configuration is stored in AppConfig and
// returned.
//
// The function uses the provided environment name to merge additional
// config files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	_ = godotenv.Load() // .env overlay is optional

	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/governd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the GOVERND_ENV environment
// variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("GOVERND_ENV", ""))
}
