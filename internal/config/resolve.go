package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment variable read by Resolve.
const EnvPrefix = "DALGHAKSUB_"

// LookupFunc reports the value of an environment variable and whether it
// is set. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// setting is one configuration value reachable from a CLI flag and from
// the environment.
type setting struct {
	// key is the CLI flag name.
	key string

	// aliases are extra environment variable names checked after the
	// prefixed one.
	aliases []string

	apply func(c *Config, value string) error
}

// EnvName returns the environment variable for a flag name, for example
// "geo-db" becomes "DALGHAKSUB_GEO_DB".
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

func stringSetting(key string, field func(*Config) *string) setting {
	return setting{key: key, apply: func(c *Config, v string) error {
		*field(c) = v
		return nil
	}}
}

func boolSetting(key string, field func(*Config) *bool) setting {
	return setting{key: key, apply: func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}}
}

func intSetting(key string, field func(*Config) *int) setting {
	return setting{key: key, apply: func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}}
}

func durationSetting(key string, field func(*Config) *time.Duration) setting {
	return setting{key: key, apply: func(c *Config, v string) error {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}}
}

// settings lists every value Resolve can override, keyed by flag name.
var settings = []setting{
	{key: "channel", apply: func(c *Config, v string) error {
		c.Channel = strings.TrimPrefix(strings.TrimSpace(v), "@")
		return nil
	}},
	withAliases(intSetting("count", func(c *Config) *int { return &c.Count }), "MESSAGE_COUNT"),
	stringSetting("output", func(c *Config) *string { return &c.Output }),
	stringSetting("encoded-output", func(c *Config) *string { return &c.EncodedOutput }),
	stringSetting("split-dir", func(c *Config) *string { return &c.SplitDir }),
	stringSetting("combined-output", func(c *Config) *string { return &c.CombinedOutput }),
	boolSetting("include-ss", func(c *Config) *bool { return &c.IncludeSS }),
	stringSetting("messages-output", func(c *Config) *string { return &c.MessagesOutput }),
	boolSetting("annotate", func(c *Config) *bool { return &c.Annotate }),
	stringSetting("attribution", func(c *Config) *string { return &c.Attribution }),
	stringSetting("unknown-flag", func(c *Config) *string { return &c.UnknownFlag }),
	stringSetting("geo-backend", func(c *Config) *string { return &c.GeoBackend }),
	stringSetting("geo-db", func(c *Config) *string { return &c.GeoDBPath }),
	stringSetting("geo-db-url", func(c *Config) *string { return &c.GeoDBURL }),
	stringSetting("geo-api-url", func(c *Config) *string { return &c.GeoAPIURL }),
	intSetting("geo-rate-limit", func(c *Config) *int { return &c.GeoRateLimit }),
	stringSetting("proxy", func(c *Config) *string { return &c.Proxy }),
	boolSetting("tor", func(c *Config) *bool { return &c.UseTor }),
	durationSetting("tor-timeout", func(c *Config) *time.Duration { return &c.TorStartupTimeout }),
	durationSetting("timeout", func(c *Config) *time.Duration { return &c.Timeout }),
	durationSetting("crawl-delay", func(c *Config) *time.Duration { return &c.CrawlDelay }),
	stringSetting("user-agent", func(c *Config) *string { return &c.UserAgent }),
	{key: "max-body-size", apply: func(c *Config, v string) error {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return err
		}
		c.MaxBodySize = n
		return nil
	}},
	stringSetting("history-db", func(c *Config) *string { return &c.HistoryDB }),
	boolSetting("no-history", func(c *Config) *bool { return &c.NoHistory }),
	boolSetting("verbose", func(c *Config) *bool { return &c.Verbose }),
	boolSetting("log-json", func(c *Config) *bool { return &c.LogJSON }),
	boolSetting("json", func(c *Config) *bool { return &c.JSONReport }),
	stringSetting("summary", func(c *Config) *string { return &c.MarkdownReport }),
}

func withAliases(s setting, aliases ...string) setting {
	s.aliases = aliases
	return s
}

// Keys returns the flag names Resolve understands.
func Keys() []string {
	keys := make([]string, len(settings))
	for i, s := range settings {
		keys[i] = s.key
	}
	return keys
}

// Resolve returns a copy of base with overrides applied, then validates it.
//
// For every setting an explicitly set flag (a key of flags) wins over the
// environment, and the environment wins over base. Keys in flags that do
// not name a setting are ignored so callers can pass every changed flag.
// A nil lookup disables environment overrides.
func Resolve(base *Config, flags map[string]string, lookup LookupFunc) (*Config, error) {
	resolved := *base

	for _, s := range settings {
		if v, ok := flags[s.key]; ok {
			if err := s.apply(&resolved, v); err != nil {
				return nil, fmt.Errorf("invalid --%s %q: %w", s.key, v, err)
			}
			continue
		}

		if lookup == nil {
			continue
		}
		for _, name := range append([]string{EnvName(s.key)}, s.aliases...) {
			v, ok := lookup(name)
			if !ok || v == "" {
				continue
			}
			if err := s.apply(&resolved, v); err != nil {
				return nil, fmt.Errorf("invalid %s %q: %w", name, v, err)
			}
			break
		}
	}

	if err := resolved.Validate(); err != nil {
		return nil, err
	}
	return &resolved, nil
}
