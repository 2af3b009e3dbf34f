// Package storagekey builds the object-store keys for uploaded assets.
// Filenames arrive from browsers and can contain anything; keys must be safe
// to embed in URLs and bucket paths without further encoding.
package storagekey

import (
	"fmt"
	"strings"
	"time"
)

// SanitizeFilename reduces an arbitrary filename to lowercase [a-z0-9.-].
// Every run of other characters and separators collapses to a single
// separator: "." if the run contained a dot (preserving extension
// boundaries), "-" otherwise. Leading and trailing runs are dropped so keys
// never start or end with punctuation. An input with no usable characters
// becomes "file".
func SanitizeFilename(name string) string {
	var b strings.Builder
	inRun, sawDot := false, false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if inRun && b.Len() > 0 {
				if sawDot {
					b.WriteByte('.')
				} else {
					b.WriteByte('-')
				}
			}
			inRun, sawDot = false, false
			b.WriteRune(r)
			continue
		}
		inRun = true
		if r == '.' {
			sawDot = true
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}

// ObjectKey returns the store key for one upload: ownerID prefix for
// per-subject listing, a nanosecond timestamp for collision resistance, and
// the sanitized original name for operator readability.
func ObjectKey(ownerID, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d-%s", ownerID, now.UnixNano(), SanitizeFilename(filename))
}
