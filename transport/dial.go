package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/pkg/retry"
)

// Dial resolves addr ("host:port") and connects, retrying transient
// failures with retry.Persistent unless WithRetry overrides it.
func Dial(ctx context.Context, addr string, opts ...Option) (*Conn, error) {
	o := applyOptions(opts)

	report(o, addr, WillResolve, nil)
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		err = errors.WrapInvalid(fmt.Errorf("%w: %w", errors.ErrInvalidArgument, err), "transport", "Dial", "parse address")
		report(o, addr, DidNotResolve, err)
		return nil, err
	}
	report(o, addr, IsResolving, nil)
	hosts, err := o.resolver.LookupHost(ctx, host)
	if err == nil && len(hosts) == 0 {
		err = fmt.Errorf("no addresses for %s", host)
	}
	if err != nil {
		err = errors.WrapTransient(err, "transport", "Dial", "resolve "+host)
		report(o, addr, DidNotResolve, err)
		return nil, err
	}
	report(o, addr, DidResolve, nil)

	cfg := retry.Persistent()
	if o.retry != nil {
		cfg = *o.retry
	}

	report(o, addr, WillConnect, nil)
	target := net.JoinHostPort(hosts[0], port)
	raw, err := retry.DoWithResult(ctx, cfg, func() (net.Conn, error) {
		report(o, addr, IsConnecting, nil)
		d := net.Dialer{Timeout: o.dialTimeout}
		return d.DialContext(ctx, "tcp", target)
	})
	if err != nil {
		err = errors.WrapTransient(fmt.Errorf("%w: %w", errors.ErrConnectionTimeout, err), "transport", "Dial", "connect "+target)
		report(o, addr, DidNotConnect, err)
		return nil, err
	}

	c := newConn(raw, addr, o)
	c.setState(DidConnect, nil)
	o.logger.Info("Connected", "addr", addr, "remote", raw.RemoteAddr().String())
	return c, nil
}
