package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/model"
)

// Defaults.
const (
	DefaultListen        = ":4999"
	DefaultAddress       = "127.0.0.1:4999"
	DefaultMetricsPort   = 9090
	DefaultMetricsPath   = "/metrics"
	DefaultBackupBucket  = "hlx-backup"
	DefaultSubjectPrefix = "hlx.events"
	DefaultBrowseTimeout = 3 * time.Second
)

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"  json:"level"`
	Format string `yaml:"format" json:"format"`
}

// NATSConfig defines the NATS connection. An empty URL disables NATS.
type NATSConfig struct {
	URL           string        `yaml:"url"            json:"url,omitempty"`
	Name          string        `yaml:"name"           json:"name,omitempty"`
	Username      string        `yaml:"username"       json:"username,omitempty"`
	Password      string        `yaml:"password"       json:"password,omitempty"`
	Token         string        `yaml:"token"          json:"token,omitempty"`
	MaxReconnects int           `yaml:"max_reconnects" json:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `yaml:"reconnect_wait" json:"reconnect_wait,omitempty"`
	// SubjectPrefix prefixes event subjects.
	SubjectPrefix string `yaml:"subject_prefix" json:"subject_prefix,omitempty"`
	// BackupBucket is the KV bucket for SAVE/LOAD. Server only.
	BackupBucket string `yaml:"backup_bucket" json:"backup_bucket,omitempty"`
	BackupKey    string `yaml:"backup_key"    json:"backup_key,omitempty"`
}

// Enabled reports whether a URL is configured.
func (c NATSConfig) Enabled() bool { return strings.TrimSpace(c.URL) != "" }

// MetricsConfig defines the Prometheus endpoint. Port 0 disables it.
type MetricsConfig struct {
	Port int    `yaml:"port" json:"port"`
	Path string `yaml:"path" json:"path"`
}

// WebSocketConfig defines the event stream. An empty Addr disables it.
type WebSocketConfig struct {
	Addr      string `yaml:"addr"       json:"addr,omitempty"`
	Path      string `yaml:"path"       json:"path,omitempty"`
	SendQueue int    `yaml:"send_queue" json:"send_queue,omitempty"`
}

// Enabled reports whether an address is configured.
func (c WebSocketConfig) Enabled() bool { return c.Addr != "" }

// JournalConfig defines the JSON-lines event journal. An empty Path
// disables it.
type JournalConfig struct {
	Path          string        `yaml:"path"           json:"path,omitempty"`
	Append        bool          `yaml:"append"         json:"append,omitempty"`
	BufferSize    int           `yaml:"buffer_size"    json:"buffer_size,omitempty"`
	FlushInterval time.Duration `yaml:"flush_interval" json:"flush_interval,omitempty"`
}

// Enabled reports whether a path is configured.
func (c JournalConfig) Enabled() bool { return c.Path != "" }

// DiscoveryConfig controls mDNS.
type DiscoveryConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Instance is the advertised name. Server only.
	Instance string `yaml:"instance" json:"instance,omitempty"`
	// BrowseTimeout bounds a client lookup.
	BrowseTimeout time.Duration `yaml:"browse_timeout" json:"browse_timeout,omitempty"`
}

// NamesConfig seeds entity names, keyed by identifier.
type NamesConfig struct {
	Zones            map[int]string `yaml:"zones,omitempty"             json:"zones,omitempty"`
	Groups           map[int]string `yaml:"groups,omitempty"            json:"groups,omitempty"`
	Sources          map[int]string `yaml:"sources,omitempty"           json:"sources,omitempty"`
	Favorites        map[int]string `yaml:"favorites,omitempty"         json:"favorites,omitempty"`
	EqualizerPresets map[int]string `yaml:"equalizer_presets,omitempty" json:"equalizer_presets,omitempty"`
}

// ServerConfig configures hlxserver.
type ServerConfig struct {
	Listen          string          `yaml:"listen"           json:"listen"`
	MaxFrame        int             `yaml:"max_frame"        json:"max_frame,omitempty"`
	EgressCapacity  int             `yaml:"egress_capacity"  json:"egress_capacity,omitempty"`
	EgressWatermark int             `yaml:"egress_watermark" json:"egress_watermark,omitempty"`
	BackupTimeout   time.Duration   `yaml:"backup_timeout"   json:"backup_timeout,omitempty"`
	Names           NamesConfig     `yaml:"names"            json:"names"`
	NATS            NATSConfig      `yaml:"nats"             json:"nats"`
	Metrics         MetricsConfig   `yaml:"metrics"          json:"metrics"`
	WebSocket       WebSocketConfig `yaml:"websocket"        json:"websocket"`
	Journal         JournalConfig   `yaml:"journal"          json:"journal"`
	Discovery       DiscoveryConfig `yaml:"discovery"        json:"discovery"`
	Log             LogConfig       `yaml:"log"              json:"log"`
}

// ClientConfig configures hlxclient.
type ClientConfig struct {
	// Address is the server host:port. Empty with discovery enabled means
	// the first server found.
	Address  string        `yaml:"address"   json:"address"`
	Timeout  time.Duration `yaml:"timeout"   json:"timeout,omitempty"`
	MaxFrame int           `yaml:"max_frame" json:"max_frame,omitempty"`
	// Reconnect is the delay between connection attempts; zero disables
	// reconnecting.
	Reconnect time.Duration   `yaml:"reconnect" json:"reconnect,omitempty"`
	NATS      NATSConfig      `yaml:"nats"      json:"nats"`
	Metrics   MetricsConfig   `yaml:"metrics"   json:"metrics"`
	WebSocket WebSocketConfig `yaml:"websocket" json:"websocket"`
	Journal   JournalConfig   `yaml:"journal"   json:"journal"`
	Discovery DiscoveryConfig `yaml:"discovery" json:"discovery"`
	Log       LogConfig       `yaml:"log"       json:"log"`
}

// DefaultServer returns the server defaults.
func DefaultServer() *ServerConfig {
	return &ServerConfig{
		Listen:  DefaultListen,
		NATS:    defaultNATS(),
		Metrics: MetricsConfig{Port: DefaultMetricsPort, Path: DefaultMetricsPath},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

// DefaultClient returns the client defaults.
func DefaultClient() *ClientConfig {
	return &ClientConfig{
		Address:   DefaultAddress,
		NATS:      defaultNATS(),
		Discovery: DiscoveryConfig{BrowseTimeout: DefaultBrowseTimeout},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

func defaultNATS() NATSConfig {
	return NATSConfig{
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		SubjectPrefix: DefaultSubjectPrefix,
		BackupBucket:  DefaultBackupBucket,
	}
}

// Validate checks the server configuration.
func (c *ServerConfig) Validate() error {
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return invalid("listen", err.Error())
	}
	if c.MaxFrame < 0 || c.EgressCapacity < 0 || c.EgressWatermark < 0 {
		return invalid("egress", "limits must not be negative")
	}
	if c.EgressCapacity > 0 && c.EgressWatermark > c.EgressCapacity {
		return invalid("egress_watermark", fmt.Sprintf("%d exceeds capacity %d", c.EgressWatermark, c.EgressCapacity))
	}
	if c.BackupTimeout < 0 {
		return invalid("backup_timeout", "must not be negative")
	}
	if err := c.Names.validate(); err != nil {
		return err
	}
	if c.Discovery.Enabled && c.Discovery.Instance == "" {
		return invalid("discovery.instance", "required when discovery is enabled")
	}
	return validateCommon(c.NATS, c.Metrics, c.WebSocket, c.Journal, c.Log)
}

// Validate checks the client configuration.
func (c *ClientConfig) Validate() error {
	if c.Address == "" && !c.Discovery.Enabled {
		return invalid("address", "required unless discovery is enabled")
	}
	if c.Address != "" {
		if _, _, err := net.SplitHostPort(c.Address); err != nil {
			return invalid("address", err.Error())
		}
	}
	if c.Timeout < 0 || c.Reconnect < 0 || c.MaxFrame < 0 {
		return invalid("timeout", "durations and limits must not be negative")
	}
	return validateCommon(c.NATS, c.Metrics, c.WebSocket, c.Journal, c.Log)
}

func validateCommon(n NATSConfig, m MetricsConfig, ws WebSocketConfig, j JournalConfig, l LogConfig) error {
	if n.Enabled() && !strings.Contains(n.URL, "://") {
		return invalid("nats.url", fmt.Sprintf("%q is not a URL", n.URL))
	}
	if n.Enabled() && !isValidSubject(n.SubjectPrefix) {
		return invalid("nats.subject_prefix", fmt.Sprintf("%q is not a valid subject", n.SubjectPrefix))
	}
	if m.Port < 0 || m.Port > 65535 {
		return invalid("metrics.port", fmt.Sprintf("%d out of range", m.Port))
	}
	if ws.Enabled() {
		if _, _, err := net.SplitHostPort(ws.Addr); err != nil {
			return invalid("websocket.addr", err.Error())
		}
		if ws.Path != "" && !strings.HasPrefix(ws.Path, "/") {
			return invalid("websocket.path", "must start with /")
		}
	}
	if j.BufferSize < 0 || j.FlushInterval < 0 {
		return invalid("journal", "buffer_size and flush_interval must not be negative")
	}
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level", l.Level)
	}
	switch strings.ToLower(l.Format) {
	case "json", "text":
	default:
		return invalid("log.format", l.Format)
	}
	return nil
}

// isValidSubject accepts dot separated tokens without wildcards or
// whitespace.
func isValidSubject(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" || strings.ContainsAny(part, "*> \t") {
			return false
		}
	}
	return true
}

func (n NamesConfig) validate() error {
	sets := []struct {
		field string
		names map[int]string
		max   int
	}{
		{"names.zones", n.Zones, model.MaxZones},
		{"names.groups", n.Groups, model.MaxGroups},
		{"names.sources", n.Sources, model.MaxSources},
		{"names.favorites", n.Favorites, model.MaxFavorites},
		{"names.equalizer_presets", n.EqualizerPresets, model.MaxEqualizerPresets},
	}
	for _, set := range sets {
		for id, name := range set.names {
			if id < 1 || id > set.max {
				return invalid(set.field, fmt.Sprintf("identifier %d not in [1, %d]", id, set.max))
			}
			if err := model.ValidateName(name); err != nil {
				return invalid(set.field, fmt.Sprintf("%d: %v", id, err))
			}
		}
	}
	return nil
}

// Seed writes the configured names into m.
func (n NamesConfig) Seed(m *model.Model) error {
	for id, name := range n.Zones {
		z, err := m.Zone(model.ZoneID(id))
		if err != nil {
			return err
		}
		if _, err := z.SetName(name); err != nil {
			return err
		}
	}
	for id, name := range n.Groups {
		g, err := m.Group(model.GroupID(id))
		if err != nil {
			return err
		}
		if _, err := g.SetName(name); err != nil {
			return err
		}
	}
	for id, name := range n.Sources {
		s, err := m.Source(model.SourceID(id))
		if err != nil {
			return err
		}
		if _, err := s.SetName(name); err != nil {
			return err
		}
	}
	for id, name := range n.Favorites {
		f, err := m.Favorite(model.FavoriteID(id))
		if err != nil {
			return err
		}
		if _, err := f.SetName(name); err != nil {
			return err
		}
	}
	for id, name := range n.EqualizerPresets {
		p, err := m.EqualizerPreset(model.PresetID(id))
		if err != nil {
			return err
		}
		if _, err := p.SetName(name); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, detail string) error {
	return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate", field+": "+detail)
}
