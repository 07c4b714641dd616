package sharelink

import (
	"strings"

	"github.com/skybow044/dalghaksub/internal/model"
)

// Valid reports whether a link has the structural shape its protocol needs.
//
//   - ss, ssr: any payload is accepted.
//   - vless, trojan: userinfo@host:port.
//   - vmess: userinfo@host:port, or a legacy url-safe base64 payload.
func Valid(l model.ShareLink) bool {
	switch l.Protocol {
	case model.ProtocolSS, model.ProtocolSSR:
		return true
	case model.ProtocolVMess:
		return hasHostPort(l.Payload()) || isLegacyVMess(l.Payload())
	case model.ProtocolVLESS, model.ProtocolTrojan:
		return hasHostPort(l.Payload())
	default:
		return false
	}
}

// head returns the payload up to the first '?' or '#'.
func head(payload string) string {
	if i := strings.IndexAny(payload, "?#"); i >= 0 {
		return payload[:i]
	}
	return payload
}

// hasHostPort checks for an '@' followed by a host:port segment, both
// before any query or fragment. The last '@' separates userinfo, since
// passwords may contain one. The segment's last ':' must have text on
// both sides.
func hasHostPort(payload string) bool {
	authority := head(payload)

	at := strings.LastIndex(authority, "@")
	if at < 0 {
		return false
	}

	segment := authority[at+1:]
	colon := strings.LastIndex(segment, ":")
	return colon > 0 && colon < len(segment)-1
}

// isLegacyVMess reports whether the payload is a non-empty url-safe base64
// token: letters, digits, '-' and '_' only.
func isLegacyVMess(payload string) bool {
	token := head(payload)
	if token == "" {
		return false
	}
	for _, r := range token {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
