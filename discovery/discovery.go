// Package discovery advertises HLX matrix servers over mDNS and finds them
// from the client side.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/c360/hlxmatrix/errors"
)

// Service and Domain identify HLX servers on the local network.
const (
	Service = "_hlx-matrix._tcp"
	Domain  = "local."
)

// Server is one discovered endpoint.
type Server struct {
	Instance string
	Host     string
	Port     int
	// Text holds the TXT record as key=value pairs.
	Text map[string]string
}

// Addr returns host:port.
func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
}

// Advertisement is a running mDNS registration.
type Advertisement struct {
	server *zeroconf.Server
	logger *slog.Logger
}

// Advertise registers instance on port until Shutdown. txt is published as
// key=value TXT records.
func Advertise(instance string, port int, txt map[string]string, logger *slog.Logger) (*Advertisement, error) {
	if instance == "" || port <= 0 || port > 65535 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "discovery", "Advertise",
			fmt.Sprintf("register %q on port %d", instance, port))
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "discovery")

	srv, err := zeroconf.Register(instance, Service, Domain, port, encodeText(txt), nil)
	if err != nil {
		return nil, errors.WrapTransient(err, "discovery", "Advertise", "register mDNS service")
	}
	logger.Info("Advertising server", "instance", instance, "service", Service, "port", port)
	return &Advertisement{server: srv, logger: logger}, nil
}

// Shutdown withdraws the registration.
func (a *Advertisement) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	a.logger.Info("Advertisement withdrawn")
}

// Browse reports each newly seen server to found until ctx ends.
func Browse(ctx context.Context, found func(Server), logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "discovery")

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return errors.WrapTransient(err, "discovery", "Browse", "initialize resolver")
	}

	entries := make(chan *zeroconf.ServiceEntry)
	seen := newTracker()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if s, ok := seen.add(entry); ok {
					logger.Info("Discovered server", "instance", s.Instance, "addr", s.Addr())
					found(s)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, Service, Domain, entries); err != nil {
		return errors.WrapTransient(err, "discovery", "Browse", "browse mDNS")
	}
	<-ctx.Done()
	wg.Wait()
	return nil
}

// Find browses for d and returns the servers seen, sorted by instance.
func Find(ctx context.Context, d time.Duration, logger *slog.Logger) ([]Server, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	var (
		mu      sync.Mutex
		servers []Server
	)
	err := Browse(ctx, func(s Server) {
		mu.Lock()
		servers = append(servers, s)
		mu.Unlock()
	}, logger)
	if err != nil {
		return nil, err
	}
	mu.Lock()
	defer mu.Unlock()
	sort.Slice(servers, func(i, j int) bool { return servers[i].Instance < servers[j].Instance })
	return servers, nil
}

// tracker dedupes entries by instance.
type tracker struct {
	mu    sync.Mutex
	known map[string]struct{}
}

func newTracker() *tracker {
	return &tracker{known: make(map[string]struct{})}
}

func (t *tracker) add(entry *zeroconf.ServiceEntry) (Server, bool) {
	s, ok := fromEntry(entry)
	if !ok {
		return Server{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, dup := t.known[s.Instance]; dup {
		return Server{}, false
	}
	t.known[s.Instance] = struct{}{}
	return s, true
}

// fromEntry converts a resolved entry, preferring IPv4.
func fromEntry(entry *zeroconf.ServiceEntry) (Server, bool) {
	if entry == nil || entry.Port <= 0 {
		return Server{}, false
	}
	var host string
	switch {
	case len(entry.AddrIPv4) > 0:
		host = entry.AddrIPv4[0].String()
	case len(entry.AddrIPv6) > 0:
		host = entry.AddrIPv6[0].String()
	default:
		return Server{}, false
	}
	return Server{
		Instance: entry.Instance,
		Host:     host,
		Port:     entry.Port,
		Text:     decodeText(entry.Text),
	}, true
}

func encodeText(txt map[string]string) []string {
	out := make([]string, 0, len(txt))
	for k, v := range txt {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func decodeText(records []string) map[string]string {
	if len(records) == 0 {
		return nil
	}
	out := make(map[string]string, len(records))
	for _, r := range records {
		k, v, _ := strings.Cut(r, "=")
		out[k] = v
	}
	return out
}
