// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	resetStore     = pflag.Bool("reset-store", false, "Wipes the durable store on startup")
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validBackends  = []string{"sqlite", "bolt"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// ResetStore reports whether --reset-store was passed.
func ResetStore() bool {
	return *resetStore
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")
	v.BindEnv("host.ssl.enabled", "host_ssl_enabled")

	v.BindEnv("jwt.secret", "jwt_secret")

	v.BindEnv("storage.backend", "storage_backend")
	v.BindEnv("storage.path", "storage_path")
	v.BindEnv("storage.max_usage", "storage_max_usage")

	v.BindEnv("upload.max_size", "upload_max_size")

	v.BindEnv("transfer.min_delay_ms", "transfer_min_delay_ms")
	v.BindEnv("transfer.max_delay_ms", "transfer_max_delay_ms")
	v.BindEnv("transfer.retention_s", "transfer_retention_s")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.path", "drive.db")
	// 1 TiB. The product copy says "1TB" but the quota has always been
	// binary units, changing it would shrink nobody's drive but still
	// surprise everybody's dashboard.
	v.SetDefault("storage.max_usage", int64(1)<<40)

	v.SetDefault("upload.max_size", 50)

	v.SetDefault("transfer.min_delay_ms", 50)
	v.SetDefault("transfer.max_delay_ms", 150)
	v.SetDefault("transfer.retention_s", 300)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validBackends, v.GetString("storage.backend")) {
		return errors.New("invalid storage backend provided")
	}

	if v.GetString("storage.path") == "" {
		return errors.New("storage path can't be empty")
	}

	if v.GetInt64("storage.max_usage") <= 0 {
		return errors.New("max usage must be bigger than 0")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("max upload size must be bigger than 0")
	}

	if v.GetInt("transfer.min_delay_ms") <= 0 || v.GetInt("transfer.max_delay_ms") < v.GetInt("transfer.min_delay_ms") {
		return errors.New("invalid transfer delay bounds provided")
	}

	if v.GetInt("transfer.retention_s") <= 0 {
		return errors.New("transfer retention must be bigger than 0")
	}

	if v.GetString("jwt.secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}
