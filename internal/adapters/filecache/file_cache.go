// Package filecache is the local filesystem backend of the token cache:
// one JSON file per key, named by a hash of the key.
package filecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gitlab.com/timkado/api/openim-client/internal/domain"
	"gitlab.com/timkado/api/openim-client/pkg/crypto"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
	fileExt  = ".cache"
)

// entry is the on-disk record.
type entry struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// Cache implements domain.TokenCache on a directory.
type Cache struct {
	dir    string
	logger domain.Logger
	now    func() time.Time
}

// New creates dir if needed and checks it is writable. Failure here is a
// startup error: a cache that cannot persist would silently re-acquire tokens
// on every call.
func New(dir string, logger domain.Logger, opts ...Option) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required for the file token cache")
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("checking cache directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cache path %s is not a directory", dir)
	}
	tmp, err := os.CreateTemp(dir, ".writable-*")
	if err != nil {
		return nil, fmt.Errorf("cache directory %s is not writable: %w", dir, err)
	}
	tmp.Close()
	os.Remove(tmp.Name())

	c := &Cache{dir: dir, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Dir returns the backing directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the file that holds key.
func (c *Cache) Path(key string) string {
	return filepath.Join(c.dir, crypto.Sha256Hex(key)+fileExt)
}

// Get reads key. A missing, unreadable, or corrupt file is a miss; an expired
// entry is a miss and its file is removed.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	path := c.Path(key)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Debug(ctx, "Token cache miss", "key", key)
		return nil, false
	}
	if err != nil {
		c.logger.Error(ctx, "Failed to read token cache file, treating as miss", "key", key, "path", path, "error", err.Error())
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil || e.ExpiresAt.IsZero() {
		c.logger.Warn(ctx, "Corrupt token cache file, removing", "key", key, "path", path)
		c.remove(ctx, key, path)
		return nil, false
	}

	if !c.now().Before(e.ExpiresAt) {
		c.logger.Debug(ctx, "Token cache entry expired, removing", "key", key, "expires_at", e.ExpiresAt)
		c.remove(ctx, key, path)
		return nil, false
	}

	c.logger.Debug(ctx, "Token cache hit", "key", key)
	return e.Value, true
}

// Put writes key atomically: the entry goes to a temp file in the same
// directory which is then renamed over the target, so concurrent readers
// see either the old or the new record, never a partial one.
func (c *Cache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("file cache put for key '%s': ttl must be positive, got %s", key, ttl)
	}
	data, err := json.Marshal(entry{Value: value, ExpiresAt: c.now().Add(ttl)})
	if err != nil {
		return fmt.Errorf("encoding cache entry for key '%s': %w", key, err)
	}

	path := c.Path(key)
	if err := writeFileAtomic(path, data); err != nil {
		c.logger.Error(ctx, "Failed to write token cache file", "key", key, "path", path, "error", err.Error())
		return err
	}
	c.logger.Debug(ctx, "Successfully cached token", "key", key, "ttl", ttl.String())
	return nil
}

// Delete removes key's file. A missing file is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	path := c.Path(key)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		c.logger.Error(ctx, "Failed to delete token cache file", "key", key, "path", path, "error", err.Error())
		return fmt.Errorf("removing cache file for key '%s': %w", key, err)
	}
	c.logger.Debug(ctx, "Deleted cached token", "key", key)
	return nil
}

// CheckWritable checks the directory is still writable.
func (c *Cache) CheckWritable() error {
	f, err := os.CreateTemp(c.dir, ".writable-*")
	if err != nil {
		return fmt.Errorf("cache directory %s is not writable: %w", c.dir, err)
	}
	f.Close()
	return os.Remove(f.Name())
}

func (c *Cache) remove(ctx context.Context, key, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		c.logger.Warn(ctx, "Failed to purge token cache file", "key", key, "path", path, "error", err.Error())
	}
}

func writeFileAtomic(path string, data []byte) error {
	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary cache file: %w", err)
	}
	temporaryPath := file.Name()

	if err := file.Chmod(filePerm); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("setting permissions on temporary cache file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary cache file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary cache file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary cache file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming cache file into place: %w", err)
	}
	return nil
}
