package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ObjectInfo is one physical entry in the object store.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ListResult is one logical folder level as the backend reports it:
// sub-folders via common prefixes, files via objects. Pagination is already
// folded in by the gateway.
type ListResult struct {
	CommonPrefixes []string
	Objects        []ObjectInfo
}

// Tagged gateway errors. Every gateway method classifies backend failures
// into one of these so callers can branch on cause instead of parsing
// transport errors.
var (
	// ErrNotFound tags operations whose source object is absent.
	ErrNotFound = errors.New("object not found")
	// ErrAccessDenied tags credential or policy failures.
	ErrAccessDenied = errors.New("access denied")
	// ErrTransient tags network or backend hiccups that the caller may retry.
	ErrTransient = errors.New("transient storage error")
)

// Gateway provides uniform access to the backing object store.
type Gateway interface {
	// ListPrefix lists one prefix with the given delimiter, following
	// continuation tokens until exhausted. Callers never see pagination.
	ListPrefix(ctx context.Context, prefix, delimiter string) (ListResult, error)

	// PresignGet returns a time-boxed download URL for key.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)

	// PresignPut returns a time-boxed upload URL for key.
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)

	// Copy duplicates fromKey under toKey. ErrNotFound when fromKey is absent.
	Copy(ctx context.Context, fromKey, toKey string) error

	// Delete removes key. Idempotent: deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists probes key metadata. "Not found" responses report false; any
	// other failure is re-raised rather than masked.
	Exists(ctx context.Context, key string) (bool, error)

	// Upload streams body to key server-side.
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
}
