// Package main provides the climate-monitor command line: the API server, the synthetic
// reading generator and the operator tools around them.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "climate-monitor",
		Short: "Climate monitoring for air-conditioned rooms",
		Long: `Monitors temperature and humidity of air-conditioning assets:
- server: ingests readings from RabbitMQ and serves the HTTP API and dashboard
- generator: seeds assets and publishes synthetic readings
- rules: imports threshold rules from YAML files
- export: writes CSV, Excel or PDF exports
- token: mints API tokens`,
		Version: "1.0.0",
	}
)

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or /etc/climate-monitor/config.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "json", "log format (json, text)")

	// Database flags are shared by every command that touches the store
	flags.String("db-host", "localhost", "PostgreSQL host")
	flags.Int("db-port", 5432, "PostgreSQL port")
	flags.String("db-user", "postgres", "PostgreSQL user")
	flags.String("db-password", "", "PostgreSQL password")
	flags.String("db-name", "climate", "PostgreSQL database name")
	flags.String("db-sslmode", "disable", "PostgreSQL SSL mode")

	bindings := map[string]string{
		"log.level":   "log-level",
		"log.format":  "log-format",
		"db.host":     "db-host",
		"db.port":     "db-port",
		"db.user":     "db-user",
		"db.password": "db-password",
		"db.name":     "db-name",
		"db.sslmode":  "db-sslmode",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			log.Fatalf("failed to bind %s flag: %v", flag, err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if err := InitConfig(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
