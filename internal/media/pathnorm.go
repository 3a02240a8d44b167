// Package media provides storage-key normalization for video objects.
//
// Stored video paths are not uniform: some rows carry a leading slash, some
// mistakenly include the bucket name as their first segment ("videos/u1/a.mp4"
// vs "u1/a.mp4"), and keys may contain characters that are unsafe in a URL
// path. Every read of a stored path must go through NormalizeKey before it is
// handed to the storage collaborator, so that both historical shapes resolve
// to the same object.
package media

import (
	"net/url"
	"strings"
)

// NormalizeKey canonicalizes a stored video path relative to bucket.
// It strips leading path separators and a redundant leading bucket segment.
// NormalizeKey is idempotent: NormalizeKey(bucket, NormalizeKey(bucket, k))
// == NormalizeKey(bucket, k) for all k.
func NormalizeKey(bucket, key string) string {
	key = strings.TrimLeft(key, "/")

	// Collapse accidental empty segments ("a//b" -> "a/b").
	for strings.Contains(key, "//") {
		key = strings.ReplaceAll(key, "//", "/")
	}

	// Strip a redundant bucket-name prefix. Some rows were written with the
	// bucket included, some without; both must normalize identically. Only a
	// whole first segment counts — a key legitimately named "videos2/x" or a
	// user folder that happens to equal the bucket name deeper in the path is
	// left alone.
	if bucket != "" {
		for strings.HasPrefix(key, bucket+"/") {
			key = strings.TrimPrefix(key, bucket+"/")
		}
	}

	return key
}

// EncodeKey percent-encodes a normalized key for inclusion in a URL path,
// preserving path separators.
func EncodeKey(key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
