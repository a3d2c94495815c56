// SPDX-License-Identifier: MPL-2.0

package include

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kscriptgo/kscript/internal/ctxlog"
)

const (
	// DefaultCacheEntries is the default number of remote sources kept in memory by a CachingFetcher.
	DefaultCacheEntries = 64

	// RemoteCacheDirName is the directory, below the merged-script directory,
	// that holds downloaded remote sources.
	RemoteCacheDirName = "urls"

	remoteCacheExt = ".src"
)

type (
	// CachingFetcher wraps a Fetcher and keeps remote content keyed by
	// canonical URI: recently used entries in an in-process LRU and, when a
	// directory is set, every entry on disk so later runs skip the download.
	// Local files are always read through, so edits are picked up on the
	// next run. Safe for concurrent use.
	CachingFetcher struct {
		next  Fetcher
		cache *lru.Cache[string, []byte]
		dir   string
	}

	// CacheOption configures a CachingFetcher.
	CacheOption func(*CachingFetcher)
)

// WithCacheDir persists remote content below dir. Entries stay until
// ClearDiskCache removes them.
func WithCacheDir(dir string) CacheOption {
	return func(c *CachingFetcher) {
		c.dir = dir
	}
}

// NewCachingFetcher wraps next with an LRU holding up to size entries.
// A non-positive size selects DefaultCacheEntries.
func NewCachingFetcher(next Fetcher, size int, opts ...CacheOption) (*CachingFetcher, error) {
	if size <= 0 {
		size = DefaultCacheEntries
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("creating include cache: %w", err)
	}
	c := &CachingFetcher{next: next, cache: cache}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch returns cached content for remote URIs. Misses are looked up on
// disk, then fetched from next and stored in both tiers.
func (c *CachingFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	if strings.EqualFold(u.Scheme, ProtocolFile) {
		return c.next.Fetch(ctx, u)
	}

	key := u.String()
	if data, ok := c.cache.Get(key); ok {
		return slices.Clone(data), nil
	}

	logger := ctxlog.FromContext(ctx)
	if data, ok := c.readDisk(ctx, key); ok {
		logger.Debug("remote include served from disk cache", "uri", key)
		c.cache.Add(key, slices.Clone(data))
		return data, nil
	}

	data, err := c.next.Fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, slices.Clone(data))
	if c.dir != "" {
		if err := WriteFileAtomic(c.diskPath(key), data); err != nil {
			// The download succeeded; only the next run pays for the failure.
			logger.Warn("failed to cache remote include", "uri", key, "error", err)
		}
	}
	return data, nil
}

// Dir returns the disk cache directory, or "" when content is kept in memory only.
func (c *CachingFetcher) Dir() string {
	return c.dir
}

// Len returns the number of entries held in memory.
func (c *CachingFetcher) Len() int {
	return c.cache.Len()
}

func (c *CachingFetcher) readDisk(ctx context.Context, key string) ([]byte, bool) {
	if c.dir == "" {
		return nil, false
	}
	data, err := os.ReadFile(c.diskPath(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			ctxlog.FromContext(ctx).Warn("failed to read cached remote include", "uri", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

// diskPath names the cache file of key by the SHA-256 of the URI.
func (c *CachingFetcher) diskPath(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+remoteCacheExt)
}

// ClearDiskCache removes the cached remote sources in dir and returns how
// many were removed. A missing dir is empty.
func ClearDiskCache(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		if !entry.Type().IsRegular() || filepath.Ext(entry.Name()) != remoteCacheExt {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
