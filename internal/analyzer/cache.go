package analyzer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 4096

type cacheEntry[T any] struct {
	modTime time.Time
	size    int64
	value   T
}

// fileCache memoizes a parse of a file for as long as its mtime and size
// stay the same. It is safe for concurrent use.
type fileCache[T any] struct {
	entries *lru.Cache[string, cacheEntry[T]]
}

func newFileCache[T any](size int) (*fileCache[T], error) {
	entries, err := lru.New[string, cacheEntry[T]](size)
	if err != nil {
		return nil, err
	}
	return &fileCache[T]{entries: entries}, nil
}

// load returns the cached parse of path or calls read for it. The second
// result is false when the file does not exist.
func (c *fileCache[T]) load(key, path string, read func(string) (T, error)) (T, bool, error) {
	var zero T
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.entries.Remove(key)
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if e, ok := c.entries.Get(key); ok && e.modTime.Equal(info.ModTime()) && e.size == info.Size() {
		return e.value, true, nil
	}

	value, err := read(path)
	if err != nil {
		return zero, false, err
	}
	c.entries.Add(key, cacheEntry[T]{modTime: info.ModTime(), size: info.Size(), value: value})
	return value, true, nil
}
