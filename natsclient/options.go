package natsclient

import (
	"log/slog"
	"time"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/metric"
	"github.com/c360/hlxmatrix/pkg/retry"
)

// ClientOption configures a Client. An option that returns an error
// aborts NewClient.
type ClientOption func(*Client) error

// WithLogger sets the logger. nil keeps slog.Default.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithMetrics records connection state and reconnects.
func WithMetrics(m *metric.Metrics) ClientOption {
	return func(c *Client) error {
		c.metrics = m
		return nil
	}
}

// WithRetry sets the initial connect backoff.
func WithRetry(cfg retry.Config) ClientOption {
	return func(c *Client) error {
		c.retry = cfg
		return nil
	}
}

// WithMaxReconnects bounds reconnect attempts after a lost link. -1 retries
// forever.
func WithMaxReconnects(max int) ClientOption {
	return func(c *Client) error {
		c.maxReconnects = max
		return nil
	}
}

// WithReconnectWait is the pause between reconnect attempts.
func WithReconnectWait(d time.Duration) ClientOption {
	return func(c *Client) error {
		c.reconnectWait = d
		return nil
	}
}

// WithTimeout bounds each connect attempt.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		if d <= 0 {
			return errors.ErrInvalidConfig
		}
		c.timeout = d
		return nil
	}
}

// WithName is the connection name shown by the NATS server, usually the
// endpoint instance.
func WithName(name string) ClientOption {
	return func(c *Client) error {
		c.clientName = name
		return nil
	}
}

// WithCredentials authenticates with a user and password.
func WithCredentials(username, password string) ClientOption {
	return func(c *Client) error {
		c.username = username
		c.password = password
		return nil
	}
}

// WithToken authenticates with a token.
func WithToken(token string) ClientOption {
	return func(c *Client) error {
		c.token = token
		return nil
	}
}

// WithHealthChangeCallback is called when the connection becomes healthy
// or stops being healthy.
func WithHealthChangeCallback(fn func(healthy bool)) ClientOption {
	return func(c *Client) error {
		c.onHealthChange = fn
		return nil
	}
}
