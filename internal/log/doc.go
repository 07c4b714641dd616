// Package log provides slog loggers that never print share-link secrets.
//
// A share-link embeds the credentials of the server it describes, so
// logging one verbatim leaks access to that server. SecureHandler masks:
//   - share-links anywhere in messages, string attributes and errors,
//     keeping only the scheme (vless://***REDACTED***)
//   - credentials in proxy URLs (socks5://***REDACTED***@host:port)
//   - attributes named uuid, password, token, cookie or authorization
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Warn("lookup failed", "link", link.Raw) // link="vless://***REDACTED***"
//
// The loggers are plain *slog.Logger values and can be handed to tornago.
package log
