package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gorm.io/gorm"

	"procodus.dev/climate-monitor/internal/store"
	"procodus.dev/climate-monitor/pkg/logger"
)

// InitConfig initializes Viper configuration.
// It supports reading from config files (config.yaml) and environment variables
// prefixed with CLIMATE_MONITOR_, e.g. CLIMATE_MONITOR_DB_HOST.
func InitConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/climate-monitor/")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("CLIMATE_MONITOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configNotFoundErr viper.ConfigFileNotFoundError
		if errors.As(err, &configNotFoundErr) {
			// Config file not found; rely on env vars and defaults
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// GetLogger creates a slog.Logger based on configuration.
func GetLogger(service string) *slog.Logger {
	return logger.New(&logger.Config{
		Output:  os.Stdout,
		Format:  logger.ParseFormat(viper.GetString("log.format")),
		Level:   logger.ParseLevel(viper.GetString("log.level")),
		Service: service,
	})
}

// dbConfig builds the database configuration from the db.* keys.
func dbConfig(log *slog.Logger) *store.DBConfig {
	return &store.DBConfig{
		Logger:   log,
		Host:     viper.GetString("db.host"),
		Port:     viper.GetInt("db.port"),
		User:     viper.GetString("db.user"),
		Password: viper.GetString("db.password"),
		DBName:   viper.GetString("db.name"),
		SSLMode:  viper.GetString("db.sslmode"),
	}
}

// openStore connects to the database, runs migrations and returns the store on top of it.
// The caller closes the returned connection with store.CloseDB.
func openStore(log *slog.Logger) (*gorm.DB, *store.Store, error) {
	db, err := store.NewDB(dbConfig(log))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	st, err := store.New(db)
	if err != nil {
		_ = store.CloseDB(db, log)
		return nil, nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	return db, st, nil
}
