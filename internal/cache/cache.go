// Package cache is a small TTL file cache for script HTTP responses, plus
// age-based pruning shared with the asset cache.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/seamui/seamui/filesystem"
	"github.com/seamui/seamui/where"
	"github.com/spf13/afero"
)

// TTL is how long a response stays valid when the caller does not say otherwise.
const TTL = 24 * time.Hour

// GenerateKey hashes a request into a file name.
func GenerateKey(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(hash[:])
}

// Read decodes the entry for key into target if it is younger than ttl.
func Read(key string, ttl time.Duration, target any) bool {
	path := filepath.Join(where.Responses(), key)

	info, err := filesystem.API().Stat(path)
	if err != nil || time.Since(info.ModTime()) > ttl {
		return false
	}

	f, err := filesystem.API().Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	return json.NewDecoder(f).Decode(target) == nil
}

// Write stores data under key.
func Write(key string, data any) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return filesystem.WriteFileAtomic(filepath.Join(where.Responses(), key), encoded, 0o644)
}

// Prune removes regular files under dir last modified more than maxAge ago.
// It returns the number of removed files.
func Prune(dir string, maxAge time.Duration) (int, error) {
	var removed int
	err := afero.Walk(filesystem.API(), dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if time.Since(info.ModTime()) > maxAge {
			if filesystem.API().Remove(path) == nil {
				removed++
			}
		}
		return nil
	})
	return removed, err
}

// CollectGarbage prunes stale responses.
func CollectGarbage() {
	_, _ = Prune(where.Responses(), TTL*7)
}
