package crawler

import (
	"net/url"
	"regexp"
	"strings"
)

// previewBase is the web preview prefix for public channels.
const previewBase = "https://t.me/s/"

// channelNamePattern matches public channel usernames.
var channelNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// ChannelURL turns a channel reference into the URL of its first page.
//
// Accepted forms:
//   - "v2ray_dalghak" or "@v2ray_dalghak"
//   - "t.me/v2ray_dalghak" or "t.me/s/v2ray_dalghak"
//   - any absolute http(s) URL, used as-is
func ChannelURL(channel string) (string, error) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return "", ErrInvalidChannel
	}

	if strings.HasPrefix(channel, "http://") || strings.HasPrefix(channel, "https://") {
		u, err := url.Parse(channel)
		if err != nil || u.Host == "" {
			return "", ErrInvalidChannel
		}
		return u.String(), nil
	}

	name := strings.TrimPrefix(channel, "@")
	if rest, ok := strings.CutPrefix(name, "t.me/"); ok {
		name = strings.TrimSuffix(strings.TrimPrefix(rest, "s/"), "/")
	}
	if !channelNamePattern.MatchString(name) {
		return "", ErrInvalidChannel
	}
	return previewBase + name, nil
}

// ChannelName returns the bare username of a channel reference, without
// "@" or any t.me prefix. For URLs it returns the last path segment.
func ChannelName(channel string) string {
	channel = strings.TrimSpace(channel)
	if u, err := url.Parse(channel); err == nil && u.Host != "" {
		channel = u.Path
	}
	channel = strings.TrimPrefix(channel, "t.me/")
	channel = strings.TrimPrefix(channel, "s/")
	channel = strings.Trim(channel, "/")
	if i := strings.LastIndex(channel, "/"); i >= 0 {
		channel = channel[i+1:]
	}
	return strings.TrimPrefix(channel, "@")
}

// PageURL returns the URL of the page older than cursor.
// An empty cursor yields the first page.
func PageURL(base, cursor string) string {
	if cursor == "" {
		return base
	}
	u, err := url.Parse(base)
	if err != nil {
		return base + "?before=" + url.QueryEscape(cursor)
	}
	q := u.Query()
	q.Set("before", cursor)
	u.RawQuery = q.Encode()
	return u.String()
}
