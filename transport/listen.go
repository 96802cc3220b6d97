package transport

import (
	"context"
	"net"
	"sync"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/pkg/retry"
)

// Listener accepts HLX connections.
type Listener struct {
	ln   net.Listener
	opts *options

	mu     sync.Mutex
	closed bool
}

// Listen binds addr, retrying with retry.Quick unless WithRetry overrides
// it. Port 0 picks a free port; see Addr.
func Listen(ctx context.Context, addr string, opts ...Option) (*Listener, error) {
	o := applyOptions(opts)
	cfg := retry.Quick()
	if o.retry != nil {
		cfg = *o.retry
	}

	var lc net.ListenConfig
	ln, err := retry.DoWithResult(ctx, cfg, func() (net.Listener, error) {
		return lc.Listen(ctx, "tcp", addr)
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "transport", "Listen", "bind "+addr)
	}
	o.logger.Info("Listening", "addr", ln.Addr().String())
	return &Listener{ln: ln, opts: o}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Serve accepts connections until ctx ends or the listener is closed,
// running handle for each on its own goroutine. Serve closes every
// connection handle returns from and waits for all handlers before
// returning.
func (l *Listener) Serve(ctx context.Context, handle func(context.Context, *Conn)) error {
	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		raw, err := l.ln.Accept()
		if err != nil {
			if l.isClosed() {
				return nil
			}
			return errors.WrapTransient(err, "transport", "Serve", "accept")
		}
		c := newConn(raw, raw.RemoteAddr().String(), l.opts)
		c.setState(DidConnect, nil)

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer c.Close()
			handle(ctx, c)
		}()
	}
}

func (l *Listener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Close stops accepting. Connections already handed out stay open.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()
	return l.ln.Close()
}
