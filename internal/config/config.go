package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/skybow044/dalghaksub/internal/crawler"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "dalghaksub"

	// DefaultChannel is the public channel harvested when none is given.
	DefaultChannel = "v2ray_dalghak"

	// DefaultCount is the number of messages collected per harvest.
	DefaultCount = 100

	// DefaultOutput is the plain-text subscription file.
	DefaultOutput = "sub.txt"

	// DefaultEncodedOutput is the base64 subscription file.
	DefaultEncodedOutput = "sub_base64.txt"

	// DefaultLinesOutput is the plain file written by the annotate command.
	DefaultLinesOutput = "normal.txt"

	// DefaultFallbackFile is read by the last command when the channel
	// cannot be reached.
	DefaultFallbackFile = "normal.txt"

	// DefaultTimeout bounds each HTTP request. The preview pages are small,
	// so 30 seconds is generous even through Tor.
	DefaultTimeout = 30 * time.Second

	// DefaultCrawlDelay is the pause between consecutive page fetches.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultMaxBodySize limits the bytes read from one page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// GeoBackendNone disables geolocation; annotation then adds only the
	// attribution.
	GeoBackendNone = "none"

	// GeoBackendHTTP resolves countries with a JSON web API.
	GeoBackendHTTP = "http"

	// GeoBackendDatabase resolves countries with a local range database
	// that is downloaded on first use.
	GeoBackendDatabase = "database"

	// DefaultGeoBackend is the geolocation backend used by default.
	DefaultGeoBackend = GeoBackendDatabase

	// DefaultGeoAPIURL is the lookup template of the http backend.
	// {ip} is replaced with the address.
	DefaultGeoAPIURL = "http://ip-api.com/json/{ip}?fields=status,message,countryCode"

	// DefaultGeoDBURL is the source of the IPv4 country ranges imported by
	// the database backend.
	DefaultGeoDBURL = "https://cdn.jsdelivr.net/npm/@ip-location-db/geolite2-country/geolite2-country-ipv4.csv"

	// DefaultGeoRateLimit is the number of http lookups per minute.
	// ip-api.com allows 45 per minute on its free tier.
	DefaultGeoRateLimit = 40
)

// Config holds all configuration options for dalghaksub.
// It is populated from defaults, the YAML file, the environment and CLI
// flags (in increasing priority) and passed down explicitly.
type Config struct {
	// Channel is the public channel name, without the leading "@".
	Channel string

	// Count is the number of messages to collect.
	Count int

	// Output is the path of the plain subscription file.
	Output string

	// EncodedOutput is the path of the base64 subscription file.
	EncodedOutput string

	// SplitDir, when set, receives one plain and one base64 file per
	// protocol bucket.
	SplitDir string

	// CombinedOutput, when set, receives the section-headed file with a
	// "# VLESS"-style heading per protocol.
	CombinedOutput string

	// IncludeSS adds the ss bucket (ss and ssr links) to split and
	// combined output.
	IncludeSS bool

	// MessagesOutput, when set, receives the raw collected messages.
	MessagesOutput string

	// Annotate tags every link with a country flag and the attribution.
	Annotate bool

	// Attribution is the text appended after the flag. Empty means
	// "@<channel>".
	Attribution string

	// UnknownFlag is used when a country cannot be resolved. Empty means
	// the tag carries the attribution only.
	UnknownFlag string

	// GeoBackend selects how IPs are resolved: "none", "http" or "database".
	GeoBackend string

	// GeoDBPath is the local range database used by the database backend.
	GeoDBPath string

	// GeoDBURL is where the database backend downloads ranges from.
	GeoDBURL string

	// GeoAPIURL is the http backend lookup template.
	GeoAPIURL string

	// GeoRateLimit is the number of http lookups per minute; 0 disables
	// rate limiting.
	GeoRateLimit int

	// Proxy routes all traffic through a SOCKS5 proxy ("host:port" or
	// "socks5://host:port"). Empty means direct connections.
	Proxy string

	// UseTor starts an embedded Tor daemon and routes traffic through it.
	// Mutually exclusive with Proxy.
	UseTor bool

	// TorStartupTimeout is the maximum time to wait for the embedded Tor
	// daemon to bootstrap.
	TorStartupTimeout time.Duration

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// CrawlDelay is the pause between consecutive page fetches.
	CrawlDelay time.Duration

	// UserAgent overrides the browser User-Agent sent with each request.
	UserAgent string

	// MaxBodySize limits the bytes read from one page; 0 uses the fetcher
	// default.
	MaxBodySize int64

	// HistoryDB is the run history database.
	HistoryDB string

	// NoHistory disables run history.
	NoHistory bool

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches the log output to JSON lines.
	LogJSON bool

	// JSONReport prints the run summary as JSON instead of text.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport, when set, is the file receiving a Markdown summary.
	MarkdownReport string

	// ConfigFilePath is the YAML configuration file. If empty, .dalghaksub
	// is searched in the current directory and then the home directory.
	ConfigFilePath string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Channel:           DefaultChannel,
		Count:             DefaultCount,
		Output:            DefaultOutput,
		EncodedOutput:     DefaultEncodedOutput,
		GeoBackend:        DefaultGeoBackend,
		GeoDBPath:         filepath.Join(XDGCacheDir(), "geoip-country.db"),
		GeoDBURL:          DefaultGeoDBURL,
		GeoAPIURL:         DefaultGeoAPIURL,
		GeoRateLimit:      DefaultGeoRateLimit,
		TorStartupTimeout: DefaultTorStartupTimeout,
		Timeout:           DefaultTimeout,
		CrawlDelay:        DefaultCrawlDelay,
		MaxBodySize:       DefaultMaxBodySize,
		HistoryDB:         filepath.Join(XDGDataDir(), "history.db"),
	}
}

// XDGDataDir returns the XDG data directory for dalghaksub.
// Default: ~/.local/share/dalghaksub
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for dalghaksub.
// Default: ~/.config/dalghaksub
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for dalghaksub.
// Default: ~/.cache/dalghaksub
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// Returns nil if valid, or the first validation error found.
func (c *Config) Validate() error {
	if _, err := crawler.ChannelURL(c.Channel); err != nil {
		return ErrInvalidChannel
	}

	if c.Count < 1 {
		return ErrInvalidCount
	}

	if c.Output == "" || c.EncodedOutput == "" {
		return ErrNoOutput
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	switch c.GeoBackend {
	case GeoBackendNone, GeoBackendHTTP:
	case GeoBackendDatabase:
		if c.Annotate && c.GeoDBPath == "" {
			return ErrNoGeoDB
		}
	default:
		return ErrInvalidGeoBackend
	}

	if c.GeoRateLimit < 0 {
		return ErrInvalidRateLimit
	}

	if c.Proxy != "" && c.UseTor {
		return ErrConflictingTransports
	}

	if c.JSONReport && c.MarkdownReport != "" {
		return ErrConflictingReportFormats
	}

	return nil
}

// EffectiveAttribution returns Attribution, or "@<channel>" when it is empty.
func (c *Config) EffectiveAttribution() string {
	if c.Attribution != "" {
		return c.Attribution
	}
	return "@" + c.ChannelName()
}

// ChannelName returns the bare username of Channel, which may also be a
// t.me link or a preview URL.
func (c *Config) ChannelName() string {
	return crawler.ChannelName(c.Channel)
}
