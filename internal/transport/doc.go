// Package transport builds the HTTP client every network call goes through.
//
// Three modes are supported: direct connections, an existing SOCKS5 proxy
// (golang.org/x/net/proxy) and an embedded Tor daemon started with
// tornago. Open picks the mode from Settings, verifies a configured proxy
// with a SOCKS5 handshake and returns a Transport whose Close releases
// the daemon.
package transport
