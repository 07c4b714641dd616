// Package geo maps IPv4 addresses to country codes and country codes to
// flag pictographs.
//
// A Resolver answers single lookups and may fail. A Cache wraps one
// Resolver for the length of a run: it asks the backend at most once per
// address and remembers failures as "no country", so callers never see a
// lookup error.
package geo
