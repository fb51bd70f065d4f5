// Package engine polls the followed anchors and applies user commands.
//
// A single loop goroutine owns every store mutation. Lookups run on their
// own goroutines, bounded by a weighted semaphore, and hand their results
// back to the loop over a channel. Consumers talk to the engine only through
// Send and Notifications.
package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/samber/mo"
	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/log"
	"github.com/seamui/seamui/metrics"
	"github.com/seamui/seamui/player"
	"github.com/seamui/seamui/store"
	"golang.org/x/sync/semaphore"
)

// ErrRunning is returned by Run when the engine has already been started.
var ErrRunning = errors.New("engine already started")

// Defaults used for zero Options fields.
const (
	DefaultInterval      = 60 * time.Second
	DefaultConcurrency   = 5
	DefaultLookupTimeout = 20 * time.Second
)

// Checker looks up one anchor. A not-live room is an Offline status, never an error.
type Checker interface {
	Check(ctx context.Context, key anchor.Key) (anchor.Info, error)
}

// Options configures an Engine.
type Options struct {
	Store   *store.Store
	Checker Checker
	Player  player.Player

	// Interval between refresh passes.
	Interval time.Duration

	// Concurrency caps lookups in flight, follow and refresh alike.
	Concurrency int

	// LookupTimeout bounds a single lookup including its asset downloads.
	LookupTimeout time.Duration

	// EventBuffer is how many snapshots are kept for a lagging consumer.
	EventBuffer int

	Metrics *metrics.Metrics
}

type origin int

const (
	fromRefresh origin = iota
	fromFollow
)

func (o origin) String() string {
	if o == fromFollow {
		return "follow"
	}
	return "refresh"
}

// flight is a lookup in progress. Only the loop reads or writes it.
type flight struct {
	origin    origin
	cancelled bool
	cancel    context.CancelFunc
}

type result struct {
	key    anchor.Key
	flight *flight
	info   anchor.Info
	err    error
}

// Engine is the scheduler and dispatcher.
type Engine struct {
	opts Options

	commands chan Command
	results  chan result
	done     chan struct{}
	started  atomic.Bool

	sem      *semaphore.Weighted
	notifier *notifier

	// loop-owned
	inFlight map[anchor.Key]*flight
}

// New builds an engine. Run starts it.
func New(opts Options) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = DefaultLookupTimeout
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 4
	}

	return &Engine{
		opts:     opts,
		commands: make(chan Command, 32),
		results:  make(chan result),
		done:     make(chan struct{}),
		sem:      semaphore.NewWeighted(int64(opts.Concurrency)),
		notifier: newNotifier(opts.EventBuffer, opts.Metrics),
		inFlight: make(map[anchor.Key]*flight),
	}
}

// Notifications delivers a snapshot of the live anchors after every change.
// The channel is closed when the engine stops.
func (e *Engine) Notifications() <-chan Event {
	return e.notifier.ch
}

// Send queues cmd for the loop. It reports false once the engine has stopped.
func (e *Engine) Send(cmd Command) bool {
	select {
	case <-e.done:
		return false
	default:
	}

	select {
	case e.commands <- cmd:
		return true
	case <-e.done:
		return false
	}
}

// Done is closed when the loop has stopped.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Run performs an immediate refresh pass and then serves commands, ticks
// and lookup results until Exit is received or ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		close(e.done)
		e.notifier.close()
		log.Info("engine stopped")
	}()

	ticker := time.NewTicker(e.opts.Interval)
	defer ticker.Stop()

	log.Infof("engine started: interval %s, concurrency %d", e.opts.Interval, e.opts.Concurrency)

	e.publish()
	e.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-e.commands:
			if _, ok := cmd.(Exit); ok {
				log.Info("exit requested")
				return nil
			}
			e.handle(ctx, cmd)
		case <-ticker.C:
			e.refresh(ctx)
		case res := <-e.results:
			e.merge(res)
		}
	}
}

func (e *Engine) handle(ctx context.Context, cmd Command) {
	switch cmd := cmd.(type) {
	case Follow:
		key, err := anchor.NewKey(cmd.Platform, cmd.RoomID)
		if err != nil {
			log.Warnf("follow: %v", err)
			return
		}
		e.dispatch(ctx, key, fromFollow)
	case Play:
		e.play(cmd.Sources)
	case Remove:
		if f, ok := e.inFlight[cmd.Key]; ok {
			f.cancelled = true
			f.cancel()
		}
		if !e.opts.Store.Remove(cmd.Key) {
			log.Debugf("remove %s: not followed", cmd.Key)
			return
		}
		log.Infof("unfollowed %s", cmd.Key)
		e.persist()
		e.publish()
	case Refresh:
		e.refresh(ctx)
	default:
		log.Warnf("unknown command %T", cmd)
	}
}

func (e *Engine) play(sources []string) {
	if len(sources) == 0 {
		log.Warn("play: no sources")
		return
	}
	if e.opts.Player == nil {
		log.Warn("play: no player")
		return
	}
	if err := e.opts.Player.Play(sources[0]); err != nil {
		log.Error(err)
	}
}

func (e *Engine) refresh(ctx context.Context) {
	configured := e.opts.Store.SnapshotConfigured()
	log.Debugf("refreshing %d anchors", len(configured))

	for _, info := range configured {
		e.dispatch(ctx, info.Key, fromRefresh)
	}
}

// dispatch starts a lookup for key unless one is already running.
func (e *Engine) dispatch(ctx context.Context, key anchor.Key, o origin) {
	if f, ok := e.inFlight[key]; ok && !f.cancelled {
		log.Debugf("%s: lookup already in flight", key)
		return
	}

	lookupCtx, cancel := context.WithCancel(ctx)
	f := &flight{origin: o, cancel: cancel}
	e.inFlight[key] = f

	go func() {
		defer cancel()

		res := result{key: key, flight: f}
		res.info, res.err = e.lookup(lookupCtx, key)

		select {
		case e.results <- res:
		case <-e.done:
		}
	}()
}

// lookup holds one concurrency slot for the lookup and its asset downloads.
func (e *Engine) lookup(ctx context.Context, key anchor.Key) (anchor.Info, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return anchor.Info{}, err
	}
	defer e.sem.Release(1)

	e.opts.Metrics.LookupStarted()
	defer e.opts.Metrics.LookupDone()

	ctx, cancel := context.WithTimeout(ctx, e.opts.LookupTimeout)
	defer cancel()

	start := time.Now()
	info, err := e.opts.Checker.Check(ctx, key)
	if err == nil && info.Status.IsLive() {
		info, err = e.opts.Store.Prepare(ctx, info)
	}

	outcome := metrics.ResultOffline
	switch {
	case err != nil:
		outcome = metrics.ResultFailed
	case info.Status.IsLive():
		outcome = metrics.ResultLive
	}
	e.opts.Metrics.ObserveLookup(key.Platform.ID(), outcome, time.Since(start))

	return info, err
}

func (e *Engine) merge(res result) {
	if e.inFlight[res.key] == res.flight {
		delete(e.inFlight, res.key)
	}

	if res.flight.cancelled {
		log.Debugf("%s: discarding result of removed anchor", res.key)
		return
	}

	if res.err != nil {
		log.Warnf("%s %s: %v", res.flight.origin, res.key, res.err)
		return
	}

	before := e.opts.Store.Get(res.key)

	var err error
	switch {
	case res.info.Status.IsLive() && res.flight.origin == fromFollow:
		e.opts.Store.Admit(res.info)
	case res.info.Status.IsLive():
		_, err = e.opts.Store.Update(res.info)
	case res.flight.origin == fromFollow && before.IsAbsent():
		e.opts.Store.AddConfigOnly(res.info)
	default:
		_, err = e.opts.Store.MarkOffline(res.key, res.info)
	}

	if err != nil {
		// removed while the lookup was running
		log.Debugf("%s: %v", res.key, err)
		return
	}

	if res.flight.origin == fromFollow && before.IsAbsent() {
		log.Infof("followed %s (%s)", res.key, res.info.Status.State)
	}

	if persistedChanged(before, e.opts.Store.Get(res.key)) {
		e.persist()
	}
	e.publish()
}

// persistedChanged reports whether the fields written to disk differ.
func persistedChanged(before, after mo.Option[anchor.Info]) bool {
	if before.IsPresent() != after.IsPresent() {
		return true
	}
	if before.IsAbsent() {
		return false
	}

	b, a := before.MustGet(), after.MustGet()
	return b.Name != a.Name ||
		b.Title != a.Title ||
		b.CoverURL != a.CoverURL ||
		b.CoverPath != a.CoverPath ||
		b.AvatarURL != a.AvatarURL ||
		b.AvatarPath != a.AvatarPath
}

func (e *Engine) persist() {
	if err := e.opts.Store.Persist(); err != nil {
		log.Error(err)
	}
}

func (e *Engine) publish() {
	live, configured := e.opts.Store.Snapshot()
	e.opts.Metrics.SetAnchors(len(configured), len(live))
	e.notifier.publish(live, configured)
}
