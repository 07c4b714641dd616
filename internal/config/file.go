package config

import (
	"fmt"
	"time"
)

// File represents the structure of the .dalghaksub configuration file.
// Every field is optional; only fields present in the file override the
// defaults.
type File struct {
	Channel        *string `yaml:"channel,omitempty"`
	Count          *int    `yaml:"count,omitempty"`
	Output         *string `yaml:"output,omitempty"`
	EncodedOutput  *string `yaml:"encodedOutput,omitempty"`
	SplitDir       *string `yaml:"splitDir,omitempty"`
	CombinedOutput *string `yaml:"combinedOutput,omitempty"`
	IncludeSS      *bool   `yaml:"includeSS,omitempty"`
	MessagesOutput *string `yaml:"messagesOutput,omitempty"`

	// Annotate configures flag annotation.
	Annotate *AnnotateFile `yaml:"annotate,omitempty"`

	// Geo configures IP geolocation.
	Geo *GeoFile `yaml:"geo,omitempty"`

	// Network configures the HTTP transport and crawl pacing.
	Network *NetworkFile `yaml:"network,omitempty"`

	HistoryDB *string `yaml:"historyDB,omitempty"`
	NoHistory *bool   `yaml:"noHistory,omitempty"`
}

// AnnotateFile is the annotate section of the configuration file.
type AnnotateFile struct {
	Enabled     *bool   `yaml:"enabled,omitempty"`
	Attribution *string `yaml:"attribution,omitempty"`
	UnknownFlag *string `yaml:"unknownFlag,omitempty"`
}

// GeoFile is the geo section of the configuration file.
type GeoFile struct {
	// Backend is "none", "http" or "database".
	Backend   *string `yaml:"backend,omitempty"`
	DBPath    *string `yaml:"dbPath,omitempty"`
	DBURL     *string `yaml:"dbURL,omitempty"`
	APIURL    *string `yaml:"apiURL,omitempty"`
	RateLimit *int    `yaml:"rateLimit,omitempty"`
}

// NetworkFile is the network section of the configuration file.
// Durations use time.ParseDuration syntax ("30s", "500ms").
type NetworkFile struct {
	Proxy             *string `yaml:"proxy,omitempty"`
	Tor               *bool   `yaml:"tor,omitempty"`
	TorStartupTimeout *string `yaml:"torStartupTimeout,omitempty"`
	Timeout           *string `yaml:"timeout,omitempty"`
	CrawlDelay        *string `yaml:"crawlDelay,omitempty"`
	UserAgent         *string `yaml:"userAgent,omitempty"`
	MaxBodySize       *int64  `yaml:"maxBodySize,omitempty"`
}

// Apply overlays the fields present in the file onto c.
func (f *File) Apply(c *Config) error {
	set(&c.Channel, f.Channel)
	set(&c.Count, f.Count)
	set(&c.Output, f.Output)
	set(&c.EncodedOutput, f.EncodedOutput)
	set(&c.SplitDir, f.SplitDir)
	set(&c.CombinedOutput, f.CombinedOutput)
	set(&c.IncludeSS, f.IncludeSS)
	set(&c.MessagesOutput, f.MessagesOutput)
	set(&c.HistoryDB, f.HistoryDB)
	set(&c.NoHistory, f.NoHistory)

	if a := f.Annotate; a != nil {
		set(&c.Annotate, a.Enabled)
		set(&c.Attribution, a.Attribution)
		set(&c.UnknownFlag, a.UnknownFlag)
	}

	if g := f.Geo; g != nil {
		set(&c.GeoBackend, g.Backend)
		set(&c.GeoDBPath, g.DBPath)
		set(&c.GeoDBURL, g.DBURL)
		set(&c.GeoAPIURL, g.APIURL)
		set(&c.GeoRateLimit, g.RateLimit)
	}

	if n := f.Network; n != nil {
		set(&c.Proxy, n.Proxy)
		set(&c.UseTor, n.Tor)
		set(&c.UserAgent, n.UserAgent)
		set(&c.MaxBodySize, n.MaxBodySize)

		durations := []struct {
			name  string
			value *string
			dst   *time.Duration
		}{
			{"network.torStartupTimeout", n.TorStartupTimeout, &c.TorStartupTimeout},
			{"network.timeout", n.Timeout, &c.Timeout},
			{"network.crawlDelay", n.CrawlDelay, &c.CrawlDelay},
		}
		for _, d := range durations {
			if d.value == nil {
				continue
			}
			parsed, err := time.ParseDuration(*d.value)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", d.name, *d.value, err)
			}
			*d.dst = parsed
		}
	}

	return nil
}

func set[T any](dst *T, value *T) {
	if value != nil {
		*dst = *value
	}
}
