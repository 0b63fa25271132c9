package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grovetools/nbremote/pkg/service"
)

// InitConfig sets up viper: config file, env overrides, defaults.
func InitConfig() {
	home, err := os.UserHomeDir()
	cobra.CheckErr(err)

	configDir := filepath.Join(home, ".config", "nbremote")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("yaml")
	viper.SetConfigName("config")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("NBREMOTE")

	// Set defaults
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("timeout", "30s")

	// The config file is optional: env vars and flags can carry everything.
	_ = viper.ReadInConfig()
}

// InitService builds the service from the loaded configuration.
func InitService() (*service.Service, error) {
	var servers map[string]service.ServerConfig
	if err := viper.UnmarshalKey("servers", &servers); err != nil {
		return nil, err
	}

	return service.New(&service.Config{
		Servers:  servers,
		Timeout:  viper.GetDuration("timeout"),
		LogLevel: viper.GetString("log_level"),
	})
}
