package sharelink

import (
	"strings"
	"unicode"

	"github.com/skybow044/dalghaksub/internal/model"
)

// Match applies the line prefix test. It returns the link that starts the
// line, ignoring leading whitespace, or false when the line does not begin
// with a supported "<protocol>://" followed by at least one character.
func Match(line string) (model.ShareLink, bool) {
	line = strings.TrimLeftFunc(line, unicode.IsSpace)

	run := line
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		run = line[:i]
	}

	scheme, rest, found := strings.Cut(run, "://")
	if !found || rest == "" {
		return model.ShareLink{}, false
	}
	return model.NewShareLink(scheme + "://" + rest)
}

// IsShareLine reports whether the line passes the prefix test.
func IsShareLine(line string) bool {
	_, ok := Match(line)
	return ok
}

// Candidates returns every prefix-matching link in text, in line order.
// No structural validation is applied.
func Candidates(text string) []model.ShareLink {
	var links []model.ShareLink
	for _, line := range strings.Split(text, "\n") {
		if l, ok := Match(line); ok {
			links = append(links, l)
		}
	}
	return links
}

// Collect extracts, validates and deduplicates links across all texts.
// Duplicates are exact, case-sensitive matches; the first occurrence wins
// and the order of first occurrence is kept.
//
// ErrNoValidLinks is returned when nothing survives validation.
func Collect(texts []string) ([]model.ShareLink, error) {
	var (
		links []model.ShareLink
		seen  = make(map[string]struct{})
	)

	for _, text := range texts {
		for _, l := range Candidates(text) {
			if !Valid(l) {
				continue
			}
			if _, dup := seen[l.Raw]; dup {
				continue
			}
			seen[l.Raw] = struct{}{}
			links = append(links, l)
		}
	}

	if len(links) == 0 {
		return nil, ErrNoValidLinks
	}
	return links, nil
}
