package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"choir-library/internal/domain"
	"choir-library/internal/keys"
	"choir-library/internal/storage"
)

// LibraryService reconstructs folder views over the flat object store.
type LibraryService interface {
	// ListFolder returns one logical folder level for an authenticated caller.
	ListFolder(ctx context.Context, prefix string, role domain.Role) (domain.FolderListing, error)
	// ListServiceDates returns the YYYY-MM-DD folders under the public
	// services root for one year, newest first.
	ListServiceDates(ctx context.Context, year string) ([]string, error)
	// ListServiceAudio returns the audio files of one public service date,
	// newest first.
	ListServiceAudio(ctx context.Context, year, date string) ([]domain.FileEntry, error)
}

type libraryService struct {
	store      storage.Gateway
	publicRoot string
}

func NewLibraryService(store storage.Gateway, publicRoot string) LibraryService {
	return &libraryService{
		store:      store,
		publicRoot: strings.Trim(publicRoot, "/"),
	}
}

// NormalizePrefix coerces a caller-supplied logical path into a store prefix:
// no leading slash, trailing slash unless root. Unnormalized prefixes silently
// miss matches, so this runs before every query.
func NormalizePrefix(prefix string) string {
	p := strings.Trim(strings.TrimSpace(prefix), "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

func (s *libraryService) ListFolder(ctx context.Context, prefix string, role domain.Role) (domain.FolderListing, error) {
	if !role.Authenticated() {
		return domain.FolderListing{}, ErrUnauthorized
	}

	normalized := NormalizePrefix(prefix)
	listing := domain.FolderListing{Prefix: normalized}

	result, err := s.store.ListPrefix(ctx, normalized, "/")
	if err != nil {
		return listing, fmt.Errorf("list folder %q: %w", normalized, err)
	}

	folders := make(map[string]struct{})
	for _, cp := range result.CommonPrefixes {
		folders[cp] = struct{}{}
	}

	seen := make(map[string]struct{})
	for _, obj := range result.Objects {
		if obj.Key == "" || obj.Key == normalized {
			// the prefix object itself (zero-byte directory marker)
			continue
		}
		if _, dup := seen[obj.Key]; dup {
			// first occurrence wins across pages and query shapes
			continue
		}
		seen[obj.Key] = struct{}{}

		if strings.HasSuffix(obj.Key, "/") {
			folders[obj.Key] = struct{}{}
			continue
		}

		rel := strings.TrimPrefix(obj.Key, normalized)
		if idx := strings.IndexByte(rel, '/'); idx > 0 {
			// orphan sub-path: the backend returned a deeper key despite the
			// delimiter, so its first extra segment is itself a folder
			folders[normalized+rel[:idx+1]] = struct{}{}
			continue
		}

		category := keys.Classify(obj.Key)
		if category == keys.Unknown {
			continue
		}

		listing.Files = append(listing.Files, domain.FileEntry{
			Key:          obj.Key,
			Name:         keys.DisplayName(obj.Key),
			Size:         obj.Size,
			LastModified: obj.LastModified,
			Category:     toDomainCategory(category),
		})
	}

	listing.Folders = make([]string, 0, len(folders))
	for f := range folders {
		listing.Folders = append(listing.Folders, f)
	}
	sort.Strings(listing.Folders)

	sort.SliceStable(listing.Files, func(i, j int) bool {
		a, b := listing.Files[i], listing.Files[j]
		if !a.LastModified.Equal(b.LastModified) {
			return a.LastModified.After(b.LastModified)
		}
		return a.Key > b.Key
	})

	return listing, nil
}

var serviceDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func (s *libraryService) ListServiceDates(ctx context.Context, year string) ([]string, error) {
	yearPrefix := NormalizePrefix(s.publicRoot + "/" + year)

	result, err := s.store.ListPrefix(ctx, yearPrefix, "/")
	if err != nil {
		return nil, fmt.Errorf("list service dates %q: %w", yearPrefix, err)
	}

	var dates []string
	for _, cp := range result.CommonPrefixes {
		date := strings.TrimSuffix(strings.TrimPrefix(cp, yearPrefix), "/")
		if serviceDatePattern.MatchString(date) {
			dates = append(dates, date)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

func (s *libraryService) ListServiceAudio(ctx context.Context, year, date string) ([]domain.FileEntry, error) {
	if !serviceDatePattern.MatchString(date) {
		return nil, fmt.Errorf("%w: invalid service date", ErrBadRequest)
	}

	prefix := NormalizePrefix(s.publicRoot + "/" + year + "/" + date + "/" + keys.AudioRoot)

	result, err := s.store.ListPrefix(ctx, prefix, "")
	if err != nil {
		return nil, fmt.Errorf("list service audio %q: %w", prefix, err)
	}

	var files []domain.FileEntry
	seen := make(map[string]struct{})
	for _, obj := range result.Objects {
		if _, dup := seen[obj.Key]; dup {
			continue
		}
		seen[obj.Key] = struct{}{}
		if keys.Classify(obj.Key) != keys.Audio {
			continue
		}
		files = append(files, domain.FileEntry{
			Key:          obj.Key,
			Name:         keys.DisplayName(obj.Key),
			Size:         obj.Size,
			LastModified: obj.LastModified,
			Category:     domain.CategoryAudio,
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if !a.LastModified.Equal(b.LastModified) {
			return a.LastModified.After(b.LastModified)
		}
		return a.Key > b.Key
	})
	return files, nil
}

func toDomainCategory(c keys.Category) domain.Category {
	switch c {
	case keys.Audio:
		return domain.CategoryAudio
	case keys.Document:
		return domain.CategoryDocument
	default:
		return domain.CategoryUnknown
	}
}
