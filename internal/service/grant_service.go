package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"choir-library/internal/domain"
	"choir-library/internal/keys"
	"choir-library/internal/storage"
)

const (
	// MaxReadGrantTTL caps download URLs at one hour.
	MaxReadGrantTTL = time.Hour
	// MaxWriteGrantTTL caps upload URLs at five minutes. A leaked upload URL
	// allows arbitrary overwrite of its key, so the window stays small.
	MaxWriteGrantTTL = 5 * time.Minute
)

// GrantService issues short-lived, operation-scoped presigned URLs. Issuing a
// grant mutates nothing; the client performs the transfer directly against
// the store.
type GrantService interface {
	// GrantRead returns a download URL. Any authenticated role may read.
	// ttl <= 0 selects the maximum; larger values are clamped.
	GrantRead(ctx context.Context, key string, role domain.Role, ttl time.Duration) (domain.AccessGrant, error)

	// GrantWrite computes a fresh destination key for the category/folder and
	// returns an upload URL for it. Admin only.
	GrantWrite(ctx context.Context, category string, folderParts []string, filename, contentType string, role domain.Role) (domain.AccessGrant, error)

	// GrantPublicRead returns a download URL without authentication, but only
	// for audio keys under the public services root.
	GrantPublicRead(ctx context.Context, key string) (domain.AccessGrant, error)
}

type grantService struct {
	store      storage.Gateway
	publicRoot string
	now        func() time.Time
}

func NewGrantService(store storage.Gateway, publicRoot string) GrantService {
	return &grantService{
		store:      store,
		publicRoot: strings.Trim(publicRoot, "/"),
		now:        time.Now,
	}
}

func (s *grantService) GrantRead(ctx context.Context, key string, role domain.Role, ttl time.Duration) (domain.AccessGrant, error) {
	if !role.Authenticated() {
		return domain.AccessGrant{}, ErrUnauthorized
	}
	if strings.TrimSpace(key) == "" {
		return domain.AccessGrant{}, fmt.Errorf("%w: key is required", ErrBadRequest)
	}
	if ttl <= 0 || ttl > MaxReadGrantTTL {
		ttl = MaxReadGrantTTL
	}

	url, err := s.store.PresignGet(ctx, key, ttl)
	if err != nil {
		return domain.AccessGrant{}, fmt.Errorf("grant read: %w", err)
	}
	return domain.AccessGrant{
		URL:       url,
		Key:       key,
		Operation: domain.GrantRead,
		ExpiresIn: ttl,
	}, nil
}

func (s *grantService) GrantWrite(ctx context.Context, category string, folderParts []string, filename, contentType string, role domain.Role) (domain.AccessGrant, error) {
	if err := requireAdmin(role); err != nil {
		return domain.AccessGrant{}, err
	}
	if strings.TrimSpace(filename) == "" {
		return domain.AccessGrant{}, fmt.Errorf("%w: filename is required", ErrBadRequest)
	}

	// The destination root comes from the enumerated category set, never from
	// a caller string, so a grant cannot traverse into unrelated bucket areas.
	root, ok := keys.CategoryRoot(parseCategory(category))
	if !ok {
		return domain.AccessGrant{}, fmt.Errorf("%w: unknown category %q", ErrBadRequest, category)
	}

	parts := append([]string{root}, folderParts...)
	key := keys.BuildKey(parts, s.now().UnixMilli(), filename)

	url, err := s.store.PresignPut(ctx, key, contentType, MaxWriteGrantTTL)
	if err != nil {
		return domain.AccessGrant{}, fmt.Errorf("grant write: %w", err)
	}
	return domain.AccessGrant{
		URL:       url,
		Key:       key,
		Operation: domain.GrantWrite,
		ExpiresIn: MaxWriteGrantTTL,
	}, nil
}

func (s *grantService) GrantPublicRead(ctx context.Context, key string) (domain.AccessGrant, error) {
	if !s.publicReadable(key) {
		return domain.AccessGrant{}, fmt.Errorf("%w: key not publicly readable", ErrBadRequest)
	}

	url, err := s.store.PresignGet(ctx, key, MaxReadGrantTTL)
	if err != nil {
		return domain.AccessGrant{}, fmt.Errorf("grant public read: %w", err)
	}
	return domain.AccessGrant{
		URL:       url,
		Key:       key,
		Operation: domain.GrantRead,
		ExpiresIn: MaxReadGrantTTL,
	}, nil
}

func (s *grantService) publicReadable(key string) bool {
	if s.publicRoot == "" || !strings.HasPrefix(key, s.publicRoot+"/") {
		return false
	}
	return keys.Classify(key) == keys.Audio
}

func parseCategory(category string) keys.Category {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "audio", "podcast", "podcasts":
		return keys.Audio
	case "document", "pdf", "pdfs":
		return keys.Document
	default:
		return keys.Unknown
	}
}
