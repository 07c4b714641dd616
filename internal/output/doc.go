// Package output turns share-link lists into subscription artifacts and
// writes them to disk.
//
// Every Artifact is checked before it is returned: decoding its base64
// form must give back the plain listing byte-for-byte. A mismatch is an
// IntegrityError and is never corrected silently. Files are only written
// after all artifacts of a run have been built, and each file is replaced
// atomically.
package output
