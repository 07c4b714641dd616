package annotate

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/skybow044/dalghaksub/internal/model"
)

// FindIPv4 returns the first IPv4 literal in s.
//
// A literal is four dot-separated decimal octets of one to three digits,
// each 0-255 without leading zeros. It must stand on its own: a literal
// inside a longer run of letters, digits and dots (a host name such as
// "1.2.3.4.nip.io" or a version "1.2.3.4.5") does not count.
func FindIPv4(s string) (string, bool) {
	start := -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && isRunByte(s[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if run := s[start:i]; isIPv4(run) {
				return run, true
			}
			start = -1
		}
	}
	return "", false
}

func isRunByte(c byte) bool {
	return c == '.' ||
		(c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z')
}

// isIPv4 reports whether s is exactly a dotted-quad address.
func isIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if !isOctet(p) {
			return false
		}
	}
	return true
}

func isOctet(p string) bool {
	if len(p) == 0 || len(p) > 3 {
		return false
	}
	if len(p) > 1 && p[0] == '0' {
		return false
	}
	n := 0
	for i := 0; i < len(p); i++ {
		if p[i] < '0' || p[i] > '9' {
			return false
		}
		n = n*10 + int(p[i]-'0')
	}
	return n <= 255
}

// vmessConfig is the part of a legacy vmess payload needed here.
type vmessConfig struct {
	Add string `json:"add"`
}

// LegacyVMessAddress decodes a legacy vmess link (base64 JSON payload)
// and returns the IPv4 literal in its "add" field.
func LegacyVMessAddress(l model.ShareLink) (string, bool) {
	if l.Protocol != model.ProtocolVMess {
		return "", false
	}

	payload := l.Payload()
	if i := strings.IndexAny(payload, "?#"); i >= 0 {
		payload = payload[:i]
	}

	raw, ok := decodeBase64(payload)
	if !ok {
		return "", false
	}

	var cfg vmessConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return "", false
	}
	return FindIPv4(cfg.Add)
}

// decodeBase64 tries the padded and unpadded, standard and url-safe alphabets.
func decodeBase64(s string) ([]byte, bool) {
	for _, enc := range []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.StdEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, true
		}
	}
	return nil, false
}
