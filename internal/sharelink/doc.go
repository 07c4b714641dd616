// Package sharelink finds proxy share-links in message text, checks their
// structure per protocol, removes duplicates and gives them stable names.
//
// Recognition is a prefix test on each line: optional leading whitespace,
// then "<protocol>://" and at least one non-whitespace character. The link
// is the whole non-whitespace run. Structural validation is a separate,
// per-protocol tokenizing step; no liveness probing is done.
package sharelink
