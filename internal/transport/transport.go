package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Mode names the way a Transport reaches the network.
type Mode string

const (
	// ModeDirect uses plain connections.
	ModeDirect Mode = "direct"

	// ModeProxy uses a configured SOCKS5 proxy.
	ModeProxy Mode = "proxy"

	// ModeTor uses an embedded Tor daemon.
	ModeTor Mode = "tor"
)

// Settings selects and configures the transport.
type Settings struct {
	// Proxy is a SOCKS5 proxy specification; empty means no proxy.
	Proxy string

	// UseTor starts an embedded Tor daemon. Ignored when Proxy is set.
	UseTor bool

	// TorStartupTimeout bounds the daemon bootstrap.
	TorStartupTimeout time.Duration

	// Timeout is the per-request timeout of the HTTP client.
	Timeout time.Duration
}

// Transport owns the HTTP client and, in Tor mode, the daemon behind it.
type Transport struct {
	client *http.Client
	mode   Mode
	tor    *EmbeddedTor
}

// Open builds the transport described by s. A configured proxy is checked
// with a SOCKS5 handshake before use; in Tor mode the daemon is started and
// must be released with Close.
func Open(ctx context.Context, s Settings, logger *slog.Logger) (*Transport, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch {
	case s.Proxy != "":
		client, err := NewClient(s.Proxy, s.Timeout)
		if err != nil {
			return nil, err
		}
		if status := client.CheckConnection(ctx); status != ProxyStatusOK {
			return nil, fmt.Errorf("proxy %s: %w", client.ProxyAddress(), status.Error())
		}
		logger.Debug("using SOCKS5 proxy", "address", client.ProxyAddress())
		return &Transport{client: client.NewHTTPClient(), mode: ModeProxy}, nil

	case s.UseTor:
		opts := []EmbeddedTorOption{}
		if s.TorStartupTimeout > 0 {
			opts = append(opts, WithStartupTimeout(s.TorStartupTimeout))
		}
		embedded := NewEmbeddedTor(opts...)

		logger.Info("starting embedded Tor daemon, this can take a few minutes")
		if err := embedded.Start(ctx); err != nil {
			return nil, err
		}

		client, err := embedded.NewClient(s.Timeout)
		if err != nil {
			_ = embedded.Stop() //nolint:errcheck // Best effort cleanup
			return nil, err
		}
		logger.Debug("embedded Tor daemon ready", "socks", embedded.SocksAddr())
		return &Transport{client: client.NewHTTPClient(), mode: ModeTor, tor: embedded}, nil

	default:
		return &Transport{client: NewDirectHTTPClient(s.Timeout), mode: ModeDirect}, nil
	}
}

// HTTPClient returns the client all requests should use.
func (t *Transport) HTTPClient() *http.Client {
	return t.client
}

// Mode reports how the transport reaches the network.
func (t *Transport) Mode() Mode {
	return t.mode
}

// Close stops the embedded Tor daemon, if any.
func (t *Transport) Close() error {
	t.client.CloseIdleConnections()
	if t.tor != nil {
		return t.tor.Stop()
	}
	return nil
}
