// Package asset downloads cover and avatar images into a local cache.
//
// Every image is decoded, converted to NRGBA and stored as PNG, whatever
// container the platform served it in (png, jpeg, gif, bmp, tiff, webp, avif).
// Opaque images are written without an alpha channel; both kinds decode to
// the same pixels. Files are published with an atomic rename, so a path
// returned by Resolve always points at a complete image.
package asset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	_ "github.com/gen2brain/avif"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/seamui/seamui/filesystem"
	"github.com/seamui/seamui/internal/cache"
	"github.com/seamui/seamui/log"
	"github.com/seamui/seamui/metrics"
	"github.com/seamui/seamui/network"
	"github.com/seamui/seamui/util"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"
)

// maxImageSize bounds a downloaded image.
const maxImageSize = 32 << 20

// imageExtensions are the path segment suffixes kept in cache file names.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".avif", ".gif", ".bmp"}

// ErrRecentlyFailed is wrapped when a URL failed less than FailTTL ago.
var ErrRecentlyFailed = errors.New("recently failed")

// Error is a failed asset resolution.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("asset %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Options configures a Cache.
type Options struct {
	// Dir is where images are stored.
	Dir string

	// Client defaults to network.Client.
	Client *http.Client

	// FailTTL is how long a failed URL fails fast. Zero disables the negative cache.
	FailTTL time.Duration

	// FailuresPath is the file backing the negative cache.
	// Defaults to a file next to Dir.
	FailuresPath string

	Metrics *metrics.Metrics
}

// Cache resolves remote image URLs to local PNG files.
type Cache struct {
	dir     string
	client  *http.Client
	failTTL time.Duration
	metrics *metrics.Metrics

	group singleflight.Group

	failuresMu sync.Mutex
	failures   *gache.Cache[map[string]time.Time]
}

// New returns a cache storing files in opts.Dir.
func New(opts Options) *Cache {
	if opts.FailuresPath == "" {
		opts.FailuresPath = filepath.Join(filepath.Dir(opts.Dir), "asset_failures.json")
	}

	return &Cache{
		dir:     opts.Dir,
		client:  opts.Client,
		failTTL: opts.FailTTL,
		metrics: opts.Metrics,
		failures: gache.New[map[string]time.Time](&gache.Options{
			Path:       opts.FailuresPath,
			FileSystem: &filesystem.GacheFs{},
		}),
	}
}

// Dir is the directory holding the cached images.
func (c *Cache) Dir() string {
	return c.dir
}

// FileName derives the cache file name of rawURL.
//
// The last path segment that looks like an image is kept behind a short hash
// of the whole URL, and ".png" is appended unless it already ends with it.
// URLs without such a segment map to the full hash.
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &Error{URL: rawURL, Err: err}
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", &Error{URL: rawURL, Err: fmt.Errorf("unsupported url")}
	}

	sum := sha256.Sum256([]byte(rawURL))
	hash := hex.EncodeToString(sum[:])

	segments := strings.Split(u.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		segment := strings.ToLower(segments[i])
		if !lo.SomeBy(imageExtensions, func(ext string) bool {
			return strings.HasSuffix(segment, ext) && len(segment) > len(ext)
		}) {
			continue
		}

		name := hash[:12] + "_" + util.SanitizeFilename(segments[i])
		if !strings.HasSuffix(strings.ToLower(name), ".png") {
			name += ".png"
		}
		return name, nil
	}

	return hash + ".png", nil
}

// Resolve returns the local path of the image at rawURL, downloading it
// first unless it is already cached. Concurrent calls for one URL share a
// single download.
func (c *Cache) Resolve(ctx context.Context, rawURL string) (string, error) {
	name, err := FileName(rawURL)
	if err != nil {
		c.metrics.IncAsset("error")
		return "", err
	}

	path := filepath.Join(c.dir, name)
	if c.exists(path) {
		c.metrics.IncAsset("hit")
		c.touch(path)
		return path, nil
	}

	if c.failedRecently(rawURL) {
		c.metrics.IncAsset("error")
		return "", &Error{URL: rawURL, Err: ErrRecentlyFailed}
	}

	// The download outlives a cancelled caller so other waiters still get the file.
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(name, func() (any, error) {
		if c.exists(path) {
			return path, nil
		}

		if err := c.download(detached, rawURL, path); err != nil {
			c.rememberFailure(rawURL)
			return nil, err
		}

		c.metrics.IncAsset("download")
		log.Debugf("cached %s as %s", rawURL, name)
		return path, nil
	})

	select {
	case <-ctx.Done():
		return "", &Error{URL: rawURL, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			c.metrics.IncAsset("error")
			return "", &Error{URL: rawURL, Err: res.Err}
		}
		return res.Val.(string), nil
	}
}

func (c *Cache) exists(path string) bool {
	info, err := filesystem.API().Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// touch keeps images in use younger than the garbage collection age.
func (c *Cache) touch(path string) {
	now := time.Now()
	if err := filesystem.API().Chtimes(path, now, now); err != nil {
		log.Debugf("touch %s: %v", path, err)
	}
}

func (c *Cache) download(ctx context.Context, rawURL, path string) error {
	body, err := network.Get(ctx, c.client, rawURL)
	if err != nil {
		return err
	}
	defer body.Close()

	img, err := imaging.Decode(io.LimitReader(body, maxImageSize))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	nrgba := imaging.Clone(img)
	return filesystem.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return imaging.Encode(w, nrgba, imaging.PNG)
	})
}

func (c *Cache) failedRecently(rawURL string) bool {
	if c.failTTL <= 0 {
		return false
	}

	c.failuresMu.Lock()
	defer c.failuresMu.Unlock()

	failures, _, err := c.failures.Get()
	if err != nil || failures == nil {
		return false
	}

	at, ok := failures[rawURL]
	return ok && time.Since(at) < c.failTTL
}

func (c *Cache) rememberFailure(rawURL string) {
	if c.failTTL <= 0 {
		return
	}

	c.failuresMu.Lock()
	defer c.failuresMu.Unlock()

	failures, _, err := c.failures.Get()
	if err != nil || failures == nil {
		failures = make(map[string]time.Time)
	}

	failures = lo.PickBy(failures, func(_ string, at time.Time) bool {
		return time.Since(at) < c.failTTL
	})
	failures[rawURL] = time.Now()

	if err := c.failures.Set(failures); err != nil {
		log.Warnf("remember failed asset %s: %v", rawURL, err)
	}
}

// CollectGarbage deletes cached images older than maxAge.
func (c *Cache) CollectGarbage(maxAge time.Duration) (int, error) {
	removed, err := cache.Prune(c.dir, maxAge)
	if removed > 0 {
		log.Infof("removed %d stale assets", removed)
	}
	return removed, err
}
