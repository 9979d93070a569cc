// Package cache keeps small JSON values on disk for a limited time.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const cacheDir = "pagetutor"

// Dir is a directory of JSON entries that expire after a TTL.
type Dir struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

type entry struct {
	StoredAt time.Time       `json:"stored_at"`
	Key      string          `json:"key"`
	Value    json.RawMessage `json:"value"`
}

// New returns a cache rooted at path.
func New(path string, ttl time.Duration) *Dir {
	return &Dir{path: path, ttl: ttl, now: time.Now}
}

// Default returns a cache under $XDG_CACHE_HOME/pagetutor/<name>.
func Default(name string, ttl time.Duration) (*Dir, error) {
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	return New(filepath.Join(cacheHome, cacheDir, name), ttl), nil
}

func (d *Dir) file(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(d.path, hex.EncodeToString(sum[:16])+".json")
}

// Get decodes the entry for key into v. It reports false when the entry is
// missing, expired or unreadable.
func (d *Dir) Get(key string, v any) bool {
	data, err := os.ReadFile(d.file(key))
	if err != nil {
		return false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil || e.Key != key {
		return false
	}
	if d.now().Sub(e.StoredAt) >= d.ttl {
		return false
	}
	return json.Unmarshal(e.Value, v) == nil
}

// Put stores v under key. The file is replaced atomically so a concurrent
// Get never sees a partial entry.
func (d *Dir) Put(key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data, err := json.Marshal(entry{StoredAt: d.now(), Key: key, Value: value})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(d.path, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(d.path, "entry-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := f.Name()
	renamed := false
	defer func() {
		if !renamed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, d.file(key)); err != nil {
		return err
	}
	renamed = true
	return nil
}

// Clear removes every entry.
func (d *Dir) Clear() error {
	return os.RemoveAll(d.path)
}
