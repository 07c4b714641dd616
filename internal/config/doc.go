// Package config holds dalghaksub's runtime configuration.
//
// Values are resolved in increasing priority: built-in defaults
// (NewConfig), the YAML file (.dalghaksub), environment variables
// (DALGHAKSUB_*, optionally loaded from .env) and explicitly set CLI flags.
// The resolved Config is validated once and then passed down explicitly.
package config
