package main

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/c360/hlxmatrix/config"
)

// cliFlags holds command-line configuration. Flags override the config
// file and HLX_* variables only when given explicitly.
type cliFlags struct {
	configPath      string
	logLevel        string
	logFormat       string
	listen          string
	metricsPort     int
	shutdownTimeout time.Duration
	validate        bool
}

func (f *cliFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configPath, "config", "c", getEnv("HLX_CONFIG", ""),
		"Path to a YAML or JSON configuration file (env: HLX_CONFIG)")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error (env: HLX_LOG_LEVEL)")
	fs.StringVar(&f.logFormat, "log-format", "json", "Log format: json, text (env: HLX_LOG_FORMAT)")
	fs.StringVarP(&f.listen, "listen", "l", config.DefaultListen, "Protocol listen address (env: HLX_LISTEN)")
	fs.IntVar(&f.metricsPort, "metrics-port", config.DefaultMetricsPort,
		"Prometheus port, 0 to disable (env: HLX_METRICS_PORT)")
	fs.DurationVar(&f.shutdownTimeout, "shutdown-timeout",
		getEnvDuration("HLX_SHUTDOWN_TIMEOUT", 10*time.Second),
		"Graceful shutdown timeout (env: HLX_SHUTDOWN_TIMEOUT)")
	fs.BoolVar(&f.validate, "validate", false, "Validate configuration and exit")
}

// load reads the configuration and applies explicitly set flags.
func (f *cliFlags) load(fs *pflag.FlagSet) (*config.ServerConfig, error) {
	loader := config.NewLoader()
	loader.EnableValidation(false)
	if f.configPath != "" {
		loader.AddLayer(f.configPath)
	}
	cfg, err := loader.LoadServer()
	if err != nil {
		return nil, err
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if fs.Changed("listen") {
		cfg.Listen = f.listen
	}
	if fs.Changed("metrics-port") {
		cfg.Metrics.Port = f.metricsPort
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
