package provider

import (
	"context"
	"crypto/sha256"
	"io"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/constant"
	"github.com/seamui/seamui/filesystem"
	"github.com/seamui/seamui/internal/scraper"
	"github.com/seamui/seamui/log"
	"github.com/seamui/seamui/network"
	"golang.org/x/sync/errgroup"
)

// maxScriptSize bounds a downloaded script.
const maxScriptSize = 1 << 20

// UpdateResult is the outcome of updating a single script.
type UpdateResult struct {
	Platform anchor.Platform
	Updated  bool
	Err      error
}

// UpdateScripts fetches the script of every platform from baseURL and
// replaces the local copy when its content differs.
// A failure for one platform does not stop the others.
func UpdateScripts(ctx context.Context, baseURL string, platforms []anchor.Platform) []UpdateResult {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	var (
		mu      sync.Mutex
		results = make([]UpdateResult, 0, len(platforms))
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, p := range platforms {
		g.Go(func() error {
			updated, err := updateScript(ctx, baseURL, p)
			if err != nil {
				log.Warnf("update %s script: %v", p, err)
			} else if updated {
				log.Infof("updated %s script", p)
			}

			mu.Lock()
			results = append(results, UpdateResult{Platform: p, Updated: updated, Err: err})
			mu.Unlock()

			// errors are collected per platform, never cancel the siblings
			return nil
		})
	}

	_ = g.Wait()

	byPlatform := lo.KeyBy(results, func(r UpdateResult) anchor.Platform { return r.Platform })
	return lo.FilterMap(platforms, func(p anchor.Platform, _ int) (UpdateResult, bool) {
		r, ok := byPlatform[p]
		return r, ok
	})
}

func updateScript(ctx context.Context, baseURL string, p anchor.Platform) (bool, error) {
	body, err := network.Get(ctx, nil, baseURL+p.ID()+constant.ScriptExtension)
	if err != nil {
		return false, err
	}
	defer body.Close()

	remote, err := io.ReadAll(io.LimitReader(body, maxScriptSize))
	if err != nil {
		return false, err
	}

	path := ScriptPath(p)
	local, err := filesystem.API().ReadFile(path)
	if err == nil && sha256.Sum256(local) == sha256.Sum256(remote) {
		return false, nil
	}

	if err := filesystem.WriteFileAtomic(path, remote, 0o644); err != nil {
		return false, err
	}

	scraper.Forget(path)
	return true, nil
}
