// Package checksum computes content digests used for change detection and
// HTTP ETags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag quotes sum for use in an ETag header.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// MatchesETag reports whether an If-Match header value names sum. A weak
// validator prefix and surrounding quotes are ignored; "*" matches anything.
func MatchesETag(header, sum string) bool {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "*" {
			return true
		}
		part = strings.TrimPrefix(part, "W/")
		if strings.Trim(part, `"`) == sum {
			return true
		}
	}
	return false
}
