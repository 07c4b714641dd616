package annotate

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/skybow044/dalghaksub/internal/geo"
	"github.com/skybow044/dalghaksub/internal/model"
	"github.com/skybow044/dalghaksub/internal/sharelink"
)

// Lookuper resolves an address to a country code; *geo.Cache implements it.
type Lookuper interface {
	Lookup(ctx context.Context, ip string) (code string, ok bool)
}

// Annotator appends flag and attribution tags to share-link lines.
// Lines are resolved strictly in order through a single Lookuper.
type Annotator struct {
	lookup      Lookuper
	attribution string
	unknownFlag string
	logger      *slog.Logger
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithUnknownFlag sets the flag used when an address cannot be resolved.
// Empty (the default) tags such lines with the attribution only.
func WithUnknownFlag(flag string) Option {
	return func(a *Annotator) {
		a.unknownFlag = flag
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Annotator) {
		a.logger = logger
	}
}

// New creates an Annotator. attribution is appended after the flag,
// typically "@<channel>".
func New(lookup Lookuper, attribution string, opts ...Option) *Annotator {
	a := &Annotator{
		lookup:      lookup,
		attribution: strings.TrimSpace(attribution),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Attribution returns the default attribution for a channel name.
func Attribution(channel string) string {
	channel = strings.TrimPrefix(strings.TrimSpace(channel), "@")
	if channel == "" {
		return ""
	}
	return "@" + channel
}

// Line annotates one line of text. Lines that fail the share-link prefix
// test, carry no IPv4 address, or are already tagged are returned
// unchanged with changed set to false.
func (a *Annotator) Line(ctx context.Context, line string) (annotated string, changed bool) {
	link, ok := sharelink.Match(line)
	if !ok {
		return line, false
	}

	tag, ok := a.tagFor(ctx, line, line, link)
	if !ok {
		return line, false
	}
	return strings.TrimRightFunc(line, isSpace) + tag, true
}

// Lines annotates every line in order and reports how many changed.
func (a *Annotator) Lines(ctx context.Context, lines []string) ([]string, int) {
	out := make([]string, len(lines))
	changed := 0
	for i, line := range lines {
		var ok bool
		out[i], ok = a.Line(ctx, line)
		if ok {
			changed++
		}
	}
	return out, changed
}

// Link annotates a share-link by appending the tag to its fragment, so the
// link itself stays free of whitespace. The idempotence check runs on the
// decoded fragment.
func (a *Annotator) Link(ctx context.Context, l model.ShareLink) (model.ShareLink, bool) {
	fragment := l.Fragment()
	decoded, err := url.PathUnescape(fragment)
	if err != nil {
		decoded = fragment
	}

	tag, ok := a.tagFor(ctx, decoded, l.Raw, l)
	if !ok {
		return l, false
	}
	return l.WithFragment(fragment + sharelink.EncodeComponent(tag)), true
}

// Links annotates every link in order and reports how many changed.
func (a *Annotator) Links(ctx context.Context, links []model.ShareLink) ([]model.ShareLink, int) {
	out := make([]model.ShareLink, len(links))
	changed := 0
	for i, l := range links {
		var ok bool
		out[i], ok = a.Link(ctx, l)
		if ok {
			changed++
		}
	}
	return out, changed
}

// tagFor builds the suffix for a link. existing is the text that must not
// already hold the tag: the whole line, or the decoded fragment. The
// address is the first IPv4 literal in scan, then the legacy vmess "add".
func (a *Annotator) tagFor(ctx context.Context, existing, scan string, l model.ShareLink) (string, bool) {
	if a.attribution != "" && strings.Contains(existing, a.attribution) {
		return "", false
	}

	ip, ok := FindIPv4(scan)
	if !ok {
		ip, ok = LegacyVMessAddress(l)
	}
	if !ok {
		return "", false
	}

	flag := a.unknownFlag
	if code, ok := a.lookup.Lookup(ctx, ip); ok {
		if f, ok := geo.Flag(code); ok {
			flag = f
		}
	} else {
		a.logger.Debug("no country for address", "ip", ip, "protocol", l.Protocol.String())
	}

	tag := buildTag(flag, a.attribution)
	if tag == "" || strings.Contains(existing, tag) {
		return "", false
	}
	return tag, true
}

// buildTag joins the non-empty parts with single spaces, leading space included.
func buildTag(flag, attribution string) string {
	var b strings.Builder
	for _, part := range []string{flag, attribution} {
		if part == "" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(part)
	}
	return b.String()
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}
