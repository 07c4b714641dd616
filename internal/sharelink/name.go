package sharelink

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/skybow044/dalghaksub/internal/model"
)

// DefaultBaseName is used for links without a fragment.
const DefaultBaseName = "node"

// Name gives every link a unique, ordered display name.
//
// Link i keeps the decoded text of its fragment (or DefaultBaseName) and
// gets a two-digit, 1-based position suffix: "Germany-01", "node-02". The
// new name is percent-encoded and replaces the fragment. The input slice
// is not modified.
func Name(links []model.ShareLink) []model.ShareLink {
	named := make([]model.ShareLink, len(links))
	for i, l := range links {
		named[i] = l.WithFragment(EncodeComponent(DisplayName(l, i)))
	}
	return named
}

// DisplayName returns the unencoded name for the link at position i.
func DisplayName(l model.ShareLink, i int) string {
	return fmt.Sprintf("%s-%02d", baseName(l.Fragment()), i+1)
}

// baseName decodes a fragment, falling back to its raw text when the
// percent-encoding is broken.
func baseName(fragment string) string {
	if fragment == "" {
		return DefaultBaseName
	}
	decoded, err := url.PathUnescape(fragment)
	if err != nil {
		return fragment
	}
	if decoded == "" {
		return DefaultBaseName
	}
	return decoded
}

const upperhex = "0123456789ABCDEF"

// EncodeComponent percent-encodes s the way browsers encode a URI
// component: everything except letters, digits and -_.!~*'() is escaped
// as UTF-8 bytes, and a space becomes %20.
func EncodeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isComponentSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0F])
	}
	return b.String()
}

func isComponentSafe(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
