// Package keys maps logical (folder, filename, category) tuples onto flat
// object-store keys and back. Keys are the only real identity in the store;
// folders only exist as prefixes reconstructed from them.
package keys

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

const (
	// AudioRoot and DocumentRoot are the conventional top-level segments new
	// uploads land under.
	AudioRoot    = "podcasts"
	DocumentRoot = "pdfs"
)

// Category is re-declared key-side so the codec stays dependency-free from the
// domain package direction; the service layer converts.
type Category string

const (
	Audio    Category = "audio"
	Document Category = "document"
	Unknown  Category = "unknown"
)

var reservedChars = `<>:"\|?*`

// SanitizeFilename strips path separators, control characters and reserved
// characters from a human-chosen name, collapses whitespace runs and
// NFC-normalizes the result. It never fails: a name with nothing left after
// sanitization is coerced to a generated placeholder.
func SanitizeFilename(raw string) string {
	name := sanitize(raw)
	if name == "" {
		return "file-" + uuid.NewString()
	}
	return name
}

// SanitizeSegment cleans one folder segment. Unlike filenames, a segment with
// nothing left is returned empty and dropped by the caller.
func SanitizeSegment(raw string) string {
	return sanitize(raw)
}

func sanitize(raw string) string {
	n := norm.NFC.String(strings.TrimSpace(raw))

	var b strings.Builder
	b.Grow(len(n))
	lastSpace := false
	for _, r := range n {
		switch {
		case r == '/' || r == '\\':
			continue
		case unicode.IsControl(r):
			continue
		case strings.ContainsRune(reservedChars, r):
			continue
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}

// BuildKey produces the storage key for a new upload. The millisecond
// timestamp prefix guarantees uniqueness under concurrent uploads to the same
// folder without an existence round trip.
func BuildKey(folderParts []string, timestampMillis int64, rawFilename string) string {
	name := SanitizeFilename(rawFilename)
	leaf := fmt.Sprintf("%d-%s", timestampMillis, name)

	segments := make([]string, 0, len(folderParts)+1)
	for _, part := range folderParts {
		seg := SanitizeSegment(part)
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		segments = append(segments, seg)
	}
	segments = append(segments, leaf)
	return strings.Join(segments, "/")
}

// Decode splits a key back into its folder segments, the embedded upload
// timestamp and the sanitized filename. Keys without a timestamp prefix
// (pre-dating the convention) decode with timestampMillis == 0 and the whole
// leaf as filename.
func Decode(key string) (folderParts []string, timestampMillis int64, filename string) {
	segments := splitKey(key)
	if len(segments) == 0 {
		return nil, 0, ""
	}

	leaf := segments[len(segments)-1]
	folderParts = segments[:len(segments)-1]

	if dash := strings.IndexByte(leaf, '-'); dash > 0 {
		if ms, err := strconv.ParseInt(leaf[:dash], 10, 64); err == nil {
			return folderParts, ms, leaf[dash+1:]
		}
	}
	return folderParts, 0, leaf
}

// Classify derives the category of a key. Extension and path-segment signals
// both count: historical uploads relied on the podcasts/pdfs folder
// convention, newer ones on the extension.
func Classify(key string) Category {
	k := strings.ToLower(key)

	if strings.HasSuffix(k, ".pdf") || hasSegment(k, "pdfs", "documents") {
		return Document
	}
	if strings.HasSuffix(k, ".mp3") || strings.HasSuffix(k, ".m4a") || strings.HasSuffix(k, ".aac") ||
		hasSegment(k, "podcasts", "audio") {
		return Audio
	}
	return Unknown
}

// CategoryRoot maps an upload category onto its conventional top-level folder
// segment. Categories outside the enumerated set have no root; refusing them
// is what keeps write grants from traversing into unrelated bucket areas.
func CategoryRoot(c Category) (string, bool) {
	switch c {
	case Audio:
		return AudioRoot, true
	case Document:
		return DocumentRoot, true
	default:
		return "", false
	}
}

// DisplayName returns the leaf of a key with the upload-timestamp prefix
// stripped, for presentation only. The stored key is never altered.
func DisplayName(key string) string {
	segments := splitKey(key)
	if len(segments) == 0 {
		return key
	}
	leaf := segments[len(segments)-1]

	if dash := strings.IndexByte(leaf, '-'); dash > 0 {
		if _, err := strconv.ParseInt(leaf[:dash], 10, 64); err == nil && dash+1 < len(leaf) {
			return leaf[dash+1:]
		}
	}
	return leaf
}

// FolderOf returns the folder portion of a key (everything up to the leaf),
// without a trailing slash. A top-level key has folder "".
func FolderOf(key string) string {
	segments := splitKey(key)
	if len(segments) <= 1 {
		return ""
	}
	return strings.Join(segments[:len(segments)-1], "/")
}

func hasSegment(lowerKey string, names ...string) bool {
	for _, seg := range strings.Split(lowerKey, "/") {
		for _, name := range names {
			if seg == name {
				return true
			}
		}
	}
	return false
}

func splitKey(key string) []string {
	raw := strings.Split(key, "/")
	segments := raw[:0]
	for _, s := range raw {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
