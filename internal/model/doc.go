// Package model defines the core data structures used throughout dalghaksub.
//
// This package contains the following main types:
//   - Message and RawPage: normalized channel posts and one fetched page of them
//   - Protocol and ShareLink: a recognized proxy share-link and its scheme
//   - Artifact: a plain/base64 output pair bound by the round-trip law
//   - HarvestReport: the state of one pipeline run
//
// Models live in their own package so that the crawler, sharelink, output,
// report and database packages can share them without import cycles.
package model
