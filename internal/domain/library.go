package domain

import "time"

// Category is the derived kind of a stored object. It routes files into the
// right UI tab and filters unrelated objects out of listings.
type Category string

const (
	CategoryAudio    Category = "audio"
	CategoryDocument Category = "document"
	CategoryUnknown  Category = "unknown"
)

// FileEntry is one listable file in a logical folder. Name is the last path
// segment of Key with the upload-timestamp prefix stripped.
type FileEntry struct {
	Key          string
	Name         string
	Size         int64
	LastModified time.Time
	Category     Category
}

// FolderListing is the reconstructed view of one logical folder level.
// Folders are full prefixes ending in "/", sorted lexicographically; files are
// sorted newest first.
type FolderListing struct {
	Prefix  string
	Folders []string
	Files   []FileEntry
}

// GrantOperation distinguishes what a presigned URL permits.
type GrantOperation string

const (
	GrantRead  GrantOperation = "read"
	GrantWrite GrantOperation = "write"
)

// AccessGrant is a short-lived presigned URL for one operation on one key.
// It is never persisted; the store's own access logs are the audit trail.
type AccessGrant struct {
	URL       string
	Key       string
	Operation GrantOperation
	ExpiresIn time.Duration
}
