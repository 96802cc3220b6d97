package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360/hlxmatrix/errors"
)

// DefaultEnvPrefix prefixes environment overrides.
const DefaultEnvPrefix = "HLX"

// Loader merges defaults, file layers and environment overrides.
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
	getenv     func(string) string
}

// NewLoader creates a loader with validation enabled.
func NewLoader() *Loader {
	return &Loader{
		validation: true,
		envPrefix:  DefaultEnvPrefix,
		getenv:     os.Getenv,
	}
}

// AddLayer adds a configuration file layer. Later layers win.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables validation after loading.
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadServer loads a ServerConfig.
func (l *Loader) LoadServer() (*ServerConfig, error) {
	cfg := DefaultServer()
	if err := l.decodeLayers(cfg); err != nil {
		return nil, err
	}
	l.env("LISTEN", func(v string) { cfg.Listen = v })
	l.applyCommon(&cfg.NATS, &cfg.Metrics, &cfg.WebSocket, &cfg.Journal, &cfg.Log)
	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadClient loads a ClientConfig.
func (l *Loader) LoadClient() (*ClientConfig, error) {
	cfg := DefaultClient()
	if err := l.decodeLayers(cfg); err != nil {
		return nil, err
	}
	l.env("ADDRESS", func(v string) { cfg.Address = v })
	l.applyCommon(&cfg.NATS, &cfg.Metrics, &cfg.WebSocket, &cfg.Journal, &cfg.Log)
	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// decodeLayers decodes each layer over out, so absent keys keep their
// current values.
func (l *Loader) decodeLayers(out any) error {
	for _, path := range l.layers {
		data, err := readConfigFile(path)
		if err != nil {
			return errors.WrapInvalid(err, "config", "Load", "read "+path)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			continue
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(out); err != nil {
			return errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err), "config", "Load", "parse "+path)
		}
	}
	return nil
}

func (l *Loader) applyCommon(n *NATSConfig, m *MetricsConfig, ws *WebSocketConfig, j *JournalConfig, lg *LogConfig) {
	l.env("NATS_URL", func(v string) { n.URL = v })
	l.env("NATS_USERNAME", func(v string) { n.Username = v })
	l.env("NATS_PASSWORD", func(v string) { n.Password = v })
	l.env("NATS_TOKEN", func(v string) { n.Token = v })
	l.env("METRICS_PORT", func(v string) {
		if port, err := strconv.Atoi(v); err == nil {
			m.Port = port
		}
	})
	l.env("WEBSOCKET_ADDR", func(v string) { ws.Addr = v })
	l.env("JOURNAL_PATH", func(v string) { j.Path = v })
	l.env("LOG_LEVEL", func(v string) { lg.Level = strings.ToLower(v) })
	l.env("LOG_FORMAT", func(v string) { lg.Format = strings.ToLower(v) })
}

// env calls set with the value of PREFIX_key when it is set and sane.
func (l *Loader) env(key string, set func(string)) {
	name := l.envPrefix + "_" + key
	val := l.getenv(name)
	if !envUsable(val) {
		return
	}
	set(val)
}

// SaveToFile writes c as YAML.
func (c *ServerConfig) SaveToFile(path string) error {
	return saveYAML(path, c)
}

// SaveToFile writes c as YAML.
func (c *ClientConfig) SaveToFile(path string) error {
	return saveYAML(path, c)
}

func saveYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.WrapInvalid(err, "config", "SaveToFile", "encode")
	}
	return writeConfigFile(path, data)
}
