// Package main provides the entry point for the dalghaksub CLI.
//
// dalghaksub collects proxy share-links posted to a public channel and
// writes them as plain and base64 subscription files.
//
// Usage:
//
//	dalghaksub harvest --channel v2ray_dalghak
//	dalghaksub annotate --input lines.txt
//	dalghaksub last
//
// See --help for all available options.
package main

// main is the entry point for dalghaksub.
func main() {
	Execute()
}
