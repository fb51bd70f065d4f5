package engine

import (
	"context"
	"sync"

	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/log"
	"golang.org/x/sync/errgroup"
)

// Report is the outcome of one anchor in a Sync pass.
// A failed lookup has a Failed status and a non-nil Err.
type Report struct {
	Info anchor.Info
	Err  error
}

// Sync looks every followed anchor up once, merges the results into the
// store and returns one report per anchor, sorted by key.
// It must not run while Run is active.
func (e *Engine) Sync(ctx context.Context) []Report {
	configured := e.opts.Store.SnapshotConfigured()
	reports := make([]Report, len(configured))

	var mu sync.Mutex
	changed := false

	g, ctx := errgroup.WithContext(ctx)
	for i, saved := range configured {
		g.Go(func() error {
			info, err := e.lookup(ctx, saved.Key)
			if err != nil {
				failed := saved.Clone()
				failed.Status = anchor.FailedStatus(err.Error())
				reports[i] = Report{Info: failed, Err: err}
				return nil
			}

			before := e.opts.Store.Get(saved.Key)
			if info.Status.IsLive() {
				_, err = e.opts.Store.Update(info)
			} else {
				_, err = e.opts.Store.MarkOffline(saved.Key, info)
			}
			if err != nil {
				log.Warnf("%s: %v", saved.Key, err)
			}

			after := e.opts.Store.Get(saved.Key)
			reports[i] = Report{Info: after.OrElse(info)}

			mu.Lock()
			changed = changed || persistedChanged(before, after)
			mu.Unlock()
			return nil
		})
	}

	// per-anchor errors are in the reports
	_ = g.Wait()

	if changed {
		e.persist()
	}

	return reports
}
