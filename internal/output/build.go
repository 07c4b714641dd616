package output

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/skybow044/dalghaksub/internal/model"
)

// Artifact names used for the fixed outputs.
const (
	NameAll      = "all"
	NameCombined = "combined"
	NameLines    = "lines"
)

// Build creates a verified artifact from lines: the plain form joins them
// with '\n' and ends with one '\n'; the encoded form is standard base64 of
// the plain bytes.
func Build(name string, lines []string) (*model.Artifact, error) {
	if len(lines) == 0 {
		return nil, ErrEmpty
	}
	return build(name, strings.Join(lines, "\n")+"\n", len(lines))
}

// build encodes plain and runs the round-trip check.
func build(name, plain string, count int) (*model.Artifact, error) {
	a := &model.Artifact{
		Name:    name,
		Plain:   plain,
		Encoded: base64.StdEncoding.EncodeToString([]byte(plain)),
		Lines:   count,
	}
	if err := Verify(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Verify checks the round-trip law of an artifact.
func Verify(a *model.Artifact) error {
	decoded, err := base64.StdEncoding.DecodeString(a.Encoded)
	if err != nil {
		return &IntegrityError{Name: a.Name, Err: err}
	}
	if !bytes.Equal(decoded, []byte(a.Plain)) {
		return &IntegrityError{Name: a.Name}
	}
	return nil
}

// BuildLinks is Build over the raw text of links.
func BuildLinks(name string, links []model.ShareLink) (*model.Artifact, error) {
	return Build(name, model.Raws(links))
}

// Digest returns the hex SHA3-256 of the artifact's plain form.
func Digest(a *model.Artifact) string {
	sum := sha3.Sum256([]byte(a.Plain))
	return hex.EncodeToString(sum[:])
}

// buckets returns the partition order. ss also receives ssr links.
func buckets(includeSS bool) []model.Protocol {
	order := []model.Protocol{model.ProtocolVLESS, model.ProtocolVMess, model.ProtocolTrojan}
	if includeSS {
		order = append(order, model.ProtocolSS)
	}
	return order
}

// bucketOf maps a protocol to its partition bucket.
func bucketOf(p model.Protocol) model.Protocol {
	if p == model.ProtocolSSR {
		return model.ProtocolSS
	}
	return p
}

// group splits links per bucket, keeping their relative order.
func group(links []model.ShareLink, includeSS bool) ([]model.Protocol, map[model.Protocol][]model.ShareLink) {
	order := buckets(includeSS)
	groups := make(map[model.Protocol][]model.ShareLink, len(order))
	for _, l := range links {
		b := bucketOf(l.Protocol)
		groups[b] = append(groups[b], l)
	}
	return order, groups
}

// Partition builds one artifact per non-empty bucket, in the fixed order
// vless, vmess, trojan and, when includeSS is set, ss. Links of other
// protocols are left out.
func Partition(links []model.ShareLink, includeSS bool) ([]model.Artifact, error) {
	order, groups := group(links, includeSS)

	artifacts := make([]model.Artifact, 0, len(order))
	for _, p := range order {
		if len(groups[p]) == 0 {
			continue
		}
		a, err := BuildLinks(p.String(), groups[p])
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, *a)
	}
	return artifacts, nil
}

// Combine builds a single artifact with one headed section per non-empty
// bucket ("# VLESS"), sections separated by a blank line.
func Combine(links []model.ShareLink, includeSS bool) (*model.Artifact, error) {
	order, groups := group(links, includeSS)
	upper := cases.Upper(language.English)

	var (
		sections []string
		count    int
	)
	for _, p := range order {
		if len(groups[p]) == 0 {
			continue
		}
		section := "# " + upper.String(p.String()) + "\n" + strings.Join(model.Raws(groups[p]), "\n")
		sections = append(sections, section)
		count += len(groups[p])
	}
	if len(sections) == 0 {
		return nil, ErrEmpty
	}

	return build(NameCombined, strings.Join(sections, "\n\n")+"\n", count)
}
