package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"choir-library/internal/domain"
	"choir-library/internal/keys"
	"choir-library/internal/storage"
)

// MutationService implements rename and delete on a store that has neither.
// Admin only.
type MutationService interface {
	// Rename moves fromKey to a sibling key carrying newName as its leaf,
	// via copy-then-delete with a pre-existence check. Returns the new key.
	Rename(ctx context.Context, fromKey, newName string, role domain.Role) (string, error)

	// Remove deletes key. Idempotent.
	Remove(ctx context.Context, key string, role domain.Role) error

	// Upload streams one file through the server into a fresh key for the
	// category/folder and returns that key.
	Upload(ctx context.Context, category string, folderParts []string, filename, contentType string, body io.Reader, role domain.Role) (string, error)
}

type mutationService struct {
	store  storage.Gateway
	logger *logrus.Logger
	now    func() time.Time
}

func NewMutationService(store storage.Gateway, logger *logrus.Logger) MutationService {
	return &mutationService{store: store, logger: logger, now: time.Now}
}

func (s *mutationService) Rename(ctx context.Context, fromKey, newName string, role domain.Role) (string, error) {
	if err := requireAdmin(role); err != nil {
		return "", err
	}

	fromKey = strings.TrimSpace(fromKey)
	if fromKey == "" || strings.HasSuffix(fromKey, "/") {
		return "", fmt.Errorf("%w: fromKey is required", ErrBadRequest)
	}
	if strings.TrimSpace(newName) == "" {
		return "", fmt.Errorf("%w: newName is required", ErrBadRequest)
	}

	// Keep the folder, swap the leaf. No new timestamp prefix: a rename keeps
	// the file where it is, it does not re-upload it.
	name := keys.SanitizeFilename(newName)
	toKey := name
	if folder := keys.FolderOf(fromKey); folder != "" {
		toKey = folder + "/" + name
	}

	if toKey == fromKey {
		return toKey, nil
	}

	// Check-then-act: a concurrent write to toKey between this probe and the
	// copy can still win. Accepted for the single-admin usage pattern; S3
	// CopyObject offers no if-none-match to close the window.
	exists, err := s.store.Exists(ctx, toKey)
	if err != nil {
		return "", fmt.Errorf("rename pre-check: %w", err)
	}
	if exists {
		return "", fmt.Errorf("%w", ErrConflict)
	}

	if err := s.store.Copy(ctx, fromKey, toKey); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("%w: source %q", ErrNotFound, fromKey)
		}
		return "", fmt.Errorf("rename copy: %w", err)
	}

	// Delete only after the copy succeeded. A failure here leaves both keys
	// present (safe duplication) rather than losing data.
	if err := s.store.Delete(ctx, fromKey); err != nil {
		s.logger.WithFields(logrus.Fields{
			"fromKey": fromKey,
			"toKey":   toKey,
		}).Warnf("rename: source not deleted after copy: %v", err)
		return "", fmt.Errorf("rename cleanup of %q: %w", fromKey, err)
	}

	return toKey, nil
}

func (s *mutationService) Remove(ctx context.Context, key string, role domain.Role) error {
	if err := requireAdmin(role); err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: key is required", ErrBadRequest)
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

func (s *mutationService) Upload(ctx context.Context, category string, folderParts []string, filename, contentType string, body io.Reader, role domain.Role) (string, error) {
	if err := requireAdmin(role); err != nil {
		return "", err
	}
	if strings.TrimSpace(filename) == "" {
		return "", fmt.Errorf("%w: filename is required", ErrBadRequest)
	}

	root, ok := keys.CategoryRoot(parseCategory(category))
	if !ok {
		return "", fmt.Errorf("%w: unknown category %q", ErrBadRequest, category)
	}

	parts := append([]string{root}, folderParts...)
	key := keys.BuildKey(parts, s.now().UnixMilli(), filename)

	if err := s.store.Upload(ctx, key, contentType, body); err != nil {
		return "", fmt.Errorf("upload %q: %w", key, err)
	}
	return key, nil
}

func requireAdmin(role domain.Role) error {
	if role == domain.RoleAdmin {
		return nil
	}
	if !role.Authenticated() {
		return ErrUnauthorized
	}
	return ErrForbidden
}
