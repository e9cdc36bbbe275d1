package app

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zurustar/autoscript/pkg/compiler"
	"github.com/zurustar/autoscript/pkg/script"
)

// CacheSuffix はキャッシュファイルの拡張子
const CacheSuffix = ".cbor"

// Cache stores compiled scripts as CBOR images keyed by source hash.
// A zero Dir disables caching.
type Cache struct {
	Dir     string
	MaxArgs int
	log     *slog.Logger
}

// NewCache creates a cache rooted at dir.
func NewCache(dir string, maxArgs int, logger *slog.Logger) *Cache {
	return &Cache{Dir: dir, MaxArgs: maxArgs, log: logger}
}

// Path returns the cache file for content.
// The argument limit is part of the key since it changes what compiles.
func (c *Cache) Path(content string) string {
	h := script.HashSource([]byte(content))
	return filepath.Join(c.Dir, fmt.Sprintf("%s-a%d%s", hex.EncodeToString(h[:]), c.MaxArgs, CacheSuffix))
}

// Compile returns the cached Script for src, compiling and storing it on a miss.
// The bool reports a cache hit.
func (c *Cache) Compile(src *script.Source) (*script.Script, bool, error) {
	var opts []compiler.Option
	if c.MaxArgs > 0 {
		opts = append(opts, compiler.WithMaxArgs(c.MaxArgs))
	}
	if c.Dir == "" {
		s, err := compiler.CompileSource(src, opts...)
		return s, false, err
	}

	path := c.Path(src.Content)
	if s, ok := c.lookup(path, src.Content); ok {
		return s, true, nil
	}

	s, err := compiler.CompileSource(src, opts...)
	if err != nil {
		return nil, false, err
	}
	if err := c.store(path, s); err != nil {
		// キャッシュの失敗は致命的ではない
		c.log.Warn("failed to write compile cache", "path", path, "error", err)
	}
	return s, false, nil
}

func (c *Cache) lookup(path, content string) (*script.Script, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.log.Warn("failed to read compile cache", "path", path, "error", err)
		}
		return nil, false
	}
	s, err := script.UnmarshalImage(data)
	if err != nil {
		c.log.Warn("ignoring corrupt compile cache", "path", path, "error", err)
		return nil, false
	}
	if !s.MatchesSource([]byte(content)) {
		c.log.Warn("ignoring stale compile cache", "path", path)
		return nil, false
	}
	c.log.Debug("compile cache hit", "path", path)
	return s, true
}

func (c *Cache) store(path string, s *script.Script) error {
	data, err := script.MarshalImage(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.Dir, "tmp-*"+CacheSuffix)
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	c.log.Debug("compile cache stored", "path", path, "bytes", len(data))
	return os.Rename(tmp.Name(), path)
}
