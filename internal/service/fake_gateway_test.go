package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"choir-library/internal/storage"
)

// fakeGateway is an in-memory storage.Gateway. Listings are served from
// canned results keyed by prefix; mutations operate on the objects map so
// rename/delete behavior can be asserted end to end.
type fakeGateway struct {
	mu sync.Mutex

	listings map[string]storage.ListResult
	objects  map[string]storage.ObjectInfo
	uploads  map[string][]byte

	listErr    error
	existsErr  error
	copyErr    error
	deleteErr  error
	presignErr error

	listedPrefixes []string
	copies         [][2]string
	deletes        []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		listings: make(map[string]storage.ListResult),
		objects:  make(map[string]storage.ObjectInfo),
		uploads:  make(map[string][]byte),
	}
}

func (f *fakeGateway) putObject(key string, size int64, lastModified time.Time) {
	f.objects[key] = storage.ObjectInfo{Key: key, Size: size, LastModified: lastModified}
}

func (f *fakeGateway) ListPrefix(_ context.Context, prefix, _ string) (storage.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listedPrefixes = append(f.listedPrefixes, prefix)
	if f.listErr != nil {
		return storage.ListResult{}, f.listErr
	}
	return f.listings[prefix], nil
}

func (f *fakeGateway) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return fmt.Sprintf("https://store.example/%s?op=GET&expires=%d", key, int(ttl.Seconds())), nil
}

func (f *fakeGateway) PresignPut(_ context.Context, key, _ string, ttl time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return fmt.Sprintf("https://store.example/%s?op=PUT&expires=%d", key, int(ttl.Seconds())), nil
}

func (f *fakeGateway) Copy(_ context.Context, fromKey, toKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.copyErr != nil {
		return f.copyErr
	}
	src, ok := f.objects[fromKey]
	if !ok {
		return fmt.Errorf("copy object: %w", storage.ErrNotFound)
	}
	dst := src
	dst.Key = toKey
	f.objects[toKey] = dst
	f.copies = append(f.copies, [2]string{fromKey, toKey})
	return nil
}

func (f *fakeGateway) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, key)
	f.deletes = append(f.deletes, key)
	return nil
}

func (f *fakeGateway) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeGateway) Upload(_ context.Context, key, _ string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[key] = data
	f.objects[key] = storage.ObjectInfo{Key: key, Size: int64(len(data)), LastModified: time.Now()}
	return nil
}

var _ storage.Gateway = (*fakeGateway)(nil)
