package main

import (
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/c360/hlxmatrix/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	address    string
	timeout    time.Duration
	discover   bool
	logLevel   string
	logFormat  string
}

func (f *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configPath, "config", "c", getEnv("HLX_CONFIG", ""),
		"Path to a YAML or JSON configuration file (env: HLX_CONFIG)")
	fs.StringVarP(&f.address, "address", "a", config.DefaultAddress, "Server host:port (env: HLX_ADDRESS)")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "Per-request timeout, 0 for the default")
	fs.BoolVar(&f.discover, "discover", false, "Locate the server with mDNS instead of --address")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error (env: HLX_LOG_LEVEL)")
	fs.StringVar(&f.logFormat, "log-format", "text", "Log format: json, text (env: HLX_LOG_FORMAT)")
}

// load reads the configuration and applies explicitly set flags.
func (f *globalFlags) load(fs *pflag.FlagSet) (*config.ClientConfig, error) {
	loader := config.NewLoader()
	loader.EnableValidation(false)
	if f.configPath != "" {
		loader.AddLayer(f.configPath)
	}
	cfg, err := loader.LoadClient()
	if err != nil {
		return nil, err
	}
	if fs.Changed("address") {
		cfg.Address = f.address
	}
	if fs.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if f.discover {
		cfg.Discovery.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
