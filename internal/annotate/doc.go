// Package annotate tags share-link lines with the flag of the country
// their server address resolves to, followed by an attribution such as
// "@v2ray_dalghak".
//
// Annotation is idempotent: a line that already carries the attribution
// or the exact tag is left alone. Geolocation failures never abort; the
// line is tagged with the configured unknown flag, or with the
// attribution alone.
package annotate
