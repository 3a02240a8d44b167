// signed_path.go — normalization of the storage sign endpoint's response path.
//
// The sign endpoint's contract is loose: depending on platform version the
// returned path has been observed as a full absolute URL, as a path already
// carrying the "/storage/v1" API segment, and as a bare "/object/sign/..."
// path that still needs the segment. Naive concatenation with the project URL
// produced doubled "/storage/v1/storage/v1" links more than once, so every
// response goes through this one function instead of ad hoc string checks at
// call sites.
package platform

import "strings"

// storageAPIPrefix is the platform storage API version segment.
const storageAPIPrefix = "/storage/v1"

// NormalizeSignedPath turns the sign endpoint's response path into an
// absolute URL under baseURL. Absolute inputs are returned unchanged;
// relative inputs gain the storage API segment exactly once.
func NormalizeSignedPath(baseURL, signed string) string {
	if signed == "" {
		return ""
	}
	if strings.HasPrefix(signed, "http://") || strings.HasPrefix(signed, "https://") {
		return signed
	}
	if !strings.HasPrefix(signed, "/") {
		signed = "/" + signed
	}

	// Collapse a doubled API segment before deciding whether to prefix.
	for strings.HasPrefix(signed, storageAPIPrefix+storageAPIPrefix+"/") {
		signed = strings.TrimPrefix(signed, storageAPIPrefix)
	}
	if !strings.HasPrefix(signed, storageAPIPrefix+"/") {
		signed = storageAPIPrefix + signed
	}

	return strings.TrimRight(baseURL, "/") + signed
}
