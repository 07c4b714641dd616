package model

import "strings"

// Protocol identifies the scheme of a share-link.
// Values are always lower case, regardless of how the link spelled them.
type Protocol string

// Supported share-link protocols.
const (
	ProtocolVMess  Protocol = "vmess"
	ProtocolVLESS  Protocol = "vless"
	ProtocolTrojan Protocol = "trojan"
	ProtocolSS     Protocol = "ss"
	ProtocolSSR    Protocol = "ssr"
)

// Protocols lists every supported protocol in a stable order.
var Protocols = []Protocol{
	ProtocolVMess,
	ProtocolVLESS,
	ProtocolTrojan,
	ProtocolSS,
	ProtocolSSR,
}

// ParseProtocol maps a scheme to a Protocol, ignoring case.
// The second return value is false for unsupported schemes.
func ParseProtocol(scheme string) (Protocol, bool) {
	p := Protocol(strings.ToLower(scheme))
	for _, known := range Protocols {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// String returns the protocol tag.
func (p Protocol) String() string {
	return string(p)
}

// schemeSeparator separates the protocol from the payload.
const schemeSeparator = "://"

// ShareLink is a proxy share-link such as "vless://id@host:443?type=ws#name".
//
// Raw keeps the exact spelling found in the source text, including the
// original case of the scheme, so that deduplication stays byte-exact.
type ShareLink struct {
	// Raw is the full link text.
	Raw string `json:"raw"`

	// Protocol is the lower-cased scheme.
	Protocol Protocol `json:"protocol"`
}

// NewShareLink builds a ShareLink from raw text.
// It returns false when raw does not start with a supported "<protocol>://".
func NewShareLink(raw string) (ShareLink, bool) {
	scheme, _, found := strings.Cut(raw, schemeSeparator)
	if !found {
		return ShareLink{}, false
	}
	p, ok := ParseProtocol(scheme)
	if !ok {
		return ShareLink{}, false
	}
	return ShareLink{Raw: raw, Protocol: p}, true
}

// Payload returns everything after "<protocol>://".
func (l ShareLink) Payload() string {
	_, payload, _ := strings.Cut(l.Raw, schemeSeparator)
	return payload
}

// Fragment returns the text after the first '#', still percent-encoded.
// It returns an empty string when the link has no fragment.
func (l ShareLink) Fragment() string {
	_, fragment, _ := strings.Cut(l.Raw, "#")
	return fragment
}

// WithoutFragment returns the link text up to, and excluding, the first '#'.
func (l ShareLink) WithoutFragment() string {
	head, _, _ := strings.Cut(l.Raw, "#")
	return head
}

// WithFragment returns a copy of the link whose fragment is replaced by
// the given, already encoded, fragment.
func (l ShareLink) WithFragment(encoded string) ShareLink {
	return ShareLink{
		Raw:      l.WithoutFragment() + "#" + encoded,
		Protocol: l.Protocol,
	}
}

// String returns the raw link text.
func (l ShareLink) String() string {
	return l.Raw
}

// Raws returns the raw text of every link in order.
func Raws(links []ShareLink) []string {
	raws := make([]string, len(links))
	for i, l := range links {
		raws[i] = l.Raw
	}
	return raws
}
