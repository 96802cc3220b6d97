package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/c360/hlxmatrix/errors"
)

// Conn is one TCP connection. Send is safe from any goroutine; ReadLoop
// runs on exactly one.
type Conn struct {
	raw  net.Conn
	addr string
	opts *options

	writeMu sync.Mutex

	gateMu sync.Mutex
	gate   *sync.Cond
	paused bool

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
	state     atomic.Int32
}

func newConn(raw net.Conn, addr string, o *options) *Conn {
	c := &Conn{raw: raw, addr: addr, opts: o}
	c.gate = sync.NewCond(&c.gateMu)
	return c
}

// Addr returns the remote address.
func (c *Conn) Addr() string { return c.addr }

// State returns the most recent life-cycle state.
func (c *Conn) State() State { return State(c.state.Load()) }

func (c *Conn) setState(s State, err error) {
	c.state.Store(int32(s))
	report(c.opts, c.addr, s, err)
}

func report(o *options, addr string, s State, err error) {
	o.metrics.SetConnectionState(o.endpoint, int(s))
	if err != nil {
		o.logger.Warn("Connection state changed", "addr", addr, "state", s.String(), "error", err)
	} else {
		o.logger.Debug("Connection state changed", "addr", addr, "state", s.String())
	}
	if o.observer != nil {
		o.observer.ConnectionStateChanged(addr, s, err)
	}
}

// Send writes one encoded frame.
func (c *Conn) Send(frame []byte) error {
	if c.closed.Load() {
		return errors.ErrNoConnection
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.raw.Write(frame); err != nil {
		return errors.WrapTransient(fmt.Errorf("%w: %w", errors.ErrTransportLost, err), "transport", "Send", "write frame")
	}
	return nil
}

// Pause stops ReadLoop before its next read.
func (c *Conn) Pause() {
	c.gateMu.Lock()
	c.paused = true
	c.gateMu.Unlock()
	c.opts.metrics.RecordReadPause()
	c.opts.logger.Info("Reads paused", "addr", c.addr)
}

// Resume lets a paused ReadLoop continue.
func (c *Conn) Resume() {
	c.gateMu.Lock()
	c.paused = false
	c.gateMu.Unlock()
	c.gate.Broadcast()
	c.opts.logger.Info("Reads resumed", "addr", c.addr)
}

// Paused reports whether reads are paused.
func (c *Conn) Paused() bool {
	c.gateMu.Lock()
	defer c.gateMu.Unlock()
	return c.paused
}

func (c *Conn) waitReadable() {
	c.gateMu.Lock()
	for c.paused && !c.closed.Load() {
		c.gate.Wait()
	}
	c.gateMu.Unlock()
}

// ReadLoop reads until the connection ends, passing each chunk to onData.
// The chunk is owned by onData. It returns nil after Close or when ctx
// ends, and an error wrapping errors.ErrTransportLost when the peer goes
// away.
func (c *Conn) ReadLoop(ctx context.Context, onData func([]byte)) error {
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	buf := make([]byte, c.opts.readSize)
	for {
		c.waitReadable()
		n, err := c.raw.Read(buf)
		if n > 0 {
			onData(append([]byte(nil), buf[:n]...))
		}
		if err == nil {
			continue
		}
		if c.closed.Load() {
			return nil
		}
		if err == io.EOF {
			return fmt.Errorf("%w: peer closed", errors.ErrTransportLost)
		}
		return errors.WrapTransient(fmt.Errorf("%w: %w", errors.ErrTransportLost, err), "transport", "ReadLoop", "read")
	}
}

// Close disconnects. It is idempotent and wakes a paused reader.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.setState(WillDisconnect, nil)
		c.gateMu.Lock()
		c.closed.Store(true)
		c.gateMu.Unlock()
		c.gate.Broadcast()
		if err := c.raw.Close(); err != nil {
			c.closeErr = errors.Wrap(err, "transport", "Close", "close socket")
			c.setState(DidNotDisconnect, c.closeErr)
			return
		}
		c.setState(DidDisconnect, nil)
	})
	return c.closeErr
}
