package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/filesystem"
	"github.com/seamui/seamui/store"
	. "github.com/smartystreets/goconvey/convey"
)

const waitTimeout = 3 * time.Second

type checkFunc func(ctx context.Context, key anchor.Key) (anchor.Info, error)

func (f checkFunc) Check(ctx context.Context, key anchor.Key) (anchor.Info, error) {
	return f(ctx, key)
}

type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, url string) (string, error) {
	path := filepath.Join("assets", filepath.Base(url)+".png")
	return path, filesystem.API().WriteFile(path, []byte("png"), 0o644)
}

type fakePlayer struct {
	played chan string
}

func (p *fakePlayer) Play(url string) error {
	p.played <- url
	return nil
}

func live(key anchor.Key) anchor.Info {
	return anchor.Info{
		Key:      key,
		Name:     "anchor " + key.RoomID,
		Title:    "title " + key.RoomID,
		CoverURL: "https://cdn.example.com/" + key.RoomID + ".jpg",
		Status: anchor.LiveStatus("title "+key.RoomID, []anchor.Source{
			{Format: "flv", URL: "https://stream.example.com/" + key.RoomID + ".flv"},
			{Format: "m3u", URL: "https://stream.example.com/" + key.RoomID + ".m3u8"},
		}),
	}
}

func offline(key anchor.Key) anchor.Info {
	return anchor.Info{Key: key, Name: "anchor " + key.RoomID, Status: anchor.OfflineStatus()}
}

func keyOf(platform anchor.Platform, room string) anchor.Key {
	return anchor.Key{Platform: platform, RoomID: room}
}

// waitEvent reads events until one satisfies ok.
func waitEvent(events <-chan Event, ok func(Event) bool) (Event, bool) {
	timeout := time.After(waitTimeout)
	for {
		select {
		case event, open := <-events:
			if !open {
				return Event{}, false
			}
			if ok(event) {
				return event, true
			}
		case <-timeout:
			return Event{}, false
		}
	}
}

func liveKeys(event Event) []string {
	keys := make([]string, len(event.Live))
	for i, info := range event.Live {
		keys[i] = info.Key.String()
	}
	return keys
}

func start(e *Engine) chan error {
	errc := make(chan error, 1)
	go func() { errc <- e.Run(context.Background()) }()
	return errc
}

func stop(e *Engine, errc chan error) error {
	e.Send(Exit{})
	select {
	case err := <-errc:
		return err
	case <-time.After(waitTimeout):
		return errors.New("engine did not stop")
	}
}

func TestFollow(t *testing.T) {
	Convey("Given a running engine", t, func() {
		filesystem.SetMemMapFs()
		s := store.New("anchors.json", fakeResolver{})
		huya := keyOf(anchor.Huya, "123")

		e := New(Options{
			Store:    s,
			Interval: time.Hour,
			Checker: checkFunc(func(_ context.Context, key anchor.Key) (anchor.Info, error) {
				switch key.RoomID {
				case "123":
					return live(key), nil
				case "456":
					return offline(key), nil
				default:
					return anchor.Info{}, errors.New("room does not exist")
				}
			}),
		})
		errc := start(e)

		Convey("Following a live anchor publishes it and persists it", func() {
			So(e.Send(Follow{Platform: anchor.Huya, RoomID: "123"}), ShouldBeTrue)

			event, ok := waitEvent(e.Notifications(), func(ev Event) bool { return len(ev.Live) == 1 })
			So(ok, ShouldBeTrue)
			So(event.Live[0].Key, ShouldResemble, huya)
			So(event.Live[0].CoverPath, ShouldNotBeEmpty)
			So(event.Live[0].Status.URLs()[0], ShouldEqual, "https://stream.example.com/123.flv")

			data, err := filesystem.API().ReadFile("anchors.json")
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"room_id": "123"`)

			So(stop(e, errc), ShouldBeNil)
		})

		Convey("Following an offline anchor tracks it without listing it as live", func() {
			So(e.Send(Follow{Platform: anchor.Huya, RoomID: "456"}), ShouldBeTrue)

			event, ok := waitEvent(e.Notifications(), func(ev Event) bool { return len(ev.Configured) == 1 })
			So(ok, ShouldBeTrue)
			So(event.Live, ShouldBeEmpty)
			So(event.Configured[0].Status.State, ShouldEqual, anchor.Offline)
			So(s.SnapshotLive(), ShouldBeEmpty)
			So(s.Get(keyOf(anchor.Huya, "456")).MustGet().Status.State, ShouldEqual, anchor.Offline)

			So(stop(e, errc), ShouldBeNil)
		})

		Convey("A failed follow changes nothing", func() {
			So(e.Send(Follow{Platform: anchor.Huya, RoomID: "missing"}), ShouldBeTrue)
			So(e.Send(Follow{Platform: anchor.Huya, RoomID: "123"}), ShouldBeTrue)

			_, ok := waitEvent(e.Notifications(), func(ev Event) bool { return len(ev.Live) == 1 })
			So(ok, ShouldBeTrue)

			time.Sleep(50 * time.Millisecond)
			So(s.Len(), ShouldEqual, 1)

			So(stop(e, errc), ShouldBeNil)
		})

		Convey("Removing an anchor drops it everywhere", func() {
			So(e.Send(Follow{Platform: anchor.Huya, RoomID: "123"}), ShouldBeTrue)
			_, ok := waitEvent(e.Notifications(), func(ev Event) bool { return len(ev.Live) == 1 })
			So(ok, ShouldBeTrue)

			So(e.Send(Remove{Key: huya}), ShouldBeTrue)
			_, ok = waitEvent(e.Notifications(), func(ev Event) bool { return len(ev.Live) == 0 })
			So(ok, ShouldBeTrue)
			So(s.Len(), ShouldEqual, 0)

			data, err := filesystem.API().ReadFile("anchors.json")
			So(err, ShouldBeNil)
			So(string(data), ShouldNotContainSubstring, "123")

			So(stop(e, errc), ShouldBeNil)
		})
	})
}

func TestRefresh(t *testing.T) {
	Convey("Given followed anchors with mixed outcomes", t, func() {
		filesystem.SetMemMapFs()
		s := store.New("anchors.json", fakeResolver{})

		a, b, c := keyOf(anchor.Bilibili, "1"), keyOf(anchor.Douyu, "2"), keyOf(anchor.Huya, "3")
		for _, key := range []anchor.Key{a, b, c} {
			s.AddConfigOnly(anchor.Info{Key: key})
		}

		e := New(Options{
			Store:    s,
			Interval: time.Hour,
			Checker: checkFunc(func(_ context.Context, key anchor.Key) (anchor.Info, error) {
				switch key {
				case a:
					return live(key), nil
				case b:
					return offline(key), nil
				default:
					return anchor.Info{}, errors.New("platform unreachable")
				}
			}),
		})
		errc := start(e)

		Convey("Only the live anchor is listed and nothing is evicted", func() {
			event, ok := waitEvent(e.Notifications(), func(ev Event) bool {
				return len(ev.Live) == 1 && s.Get(b).MustGet().Name == "anchor 2"
			})
			So(ok, ShouldBeTrue)
			So(liveKeys(event), ShouldResemble, []string{"bilibili/1"})

			So(stop(e, errc), ShouldBeNil)
			So(s.Len(), ShouldEqual, 3)
			So(s.Get(c).IsPresent(), ShouldBeTrue)
			So(s.Get(b).MustGet().Name, ShouldEqual, "anchor 2")
		})
	})

	Convey("Given a live anchor that goes offline", t, func() {
		filesystem.SetMemMapFs()
		s := store.New("anchors.json", fakeResolver{})
		key := keyOf(anchor.Huya, "1")

		var isLive atomic.Bool
		isLive.Store(true)

		e := New(Options{
			Store:    s,
			Interval: time.Hour,
			Checker: checkFunc(func(_ context.Context, key anchor.Key) (anchor.Info, error) {
				if isLive.Load() {
					return live(key), nil
				}
				return offline(key), nil
			}),
		})
		s.AddConfigOnly(anchor.Info{Key: key})
		errc := start(e)

		_, ok := waitEvent(e.Notifications(), func(ev Event) bool { return len(ev.Live) == 1 })
		So(ok, ShouldBeTrue)

		Convey("A refresh command removes it from the live list", func() {
			isLive.Store(false)
			So(e.Send(Refresh{}), ShouldBeTrue)

			_, ok := waitEvent(e.Notifications(), func(ev Event) bool { return len(ev.Live) == 0 })
			So(ok, ShouldBeTrue)
			So(s.Len(), ShouldEqual, 1)

			So(stop(e, errc), ShouldBeNil)
		})
	})
}

func TestFailedRefresh(t *testing.T) {
	Convey("Given a live anchor whose platform starts failing", t, func() {
		filesystem.SetMemMapFs()
		s := store.New("anchors.json", fakeResolver{})
		key := keyOf(anchor.Douyu, "1")
		s.AddConfigOnly(anchor.Info{Key: key})

		var calls atomic.Int32
		release := make(chan struct{})

		e := New(Options{
			Store:    s,
			Interval: time.Hour,
			Checker: checkFunc(func(ctx context.Context, key anchor.Key) (anchor.Info, error) {
				switch calls.Add(1) {
				case 1:
					return live(key), nil
				case 2:
					return anchor.Info{}, errors.New("platform unreachable")
				default:
					select {
					case <-release:
					case <-ctx.Done():
					}
					return anchor.Info{}, errors.New("platform unreachable")
				}
			}),
		})
		errc := start(e)

		_, ok := waitEvent(e.Notifications(), func(ev Event) bool { return len(ev.Live) == 1 })
		So(ok, ShouldBeTrue)

		Convey("It stays live after the failed lookup", func() {
			// a third lookup is only dispatched once the second result was merged
			deadline := time.Now().Add(waitTimeout)
			for calls.Load() < 3 && time.Now().Before(deadline) {
				e.Send(Refresh{})
				time.Sleep(10 * time.Millisecond)
			}
			So(int(calls.Load()), ShouldBeGreaterThanOrEqualTo, 3)

			liveNow := s.SnapshotLive()
			So(liveNow, ShouldHaveLength, 1)
			So(liveNow[0].Key, ShouldResemble, key)
			So(liveNow[0].Status.IsLive(), ShouldBeTrue)

			close(release)
			So(stop(e, errc), ShouldBeNil)
		})
	})
}

func TestLookupTimeout(t *testing.T) {
	Convey("Given a single slot and a lookup that hangs until its deadline", t, func() {
		filesystem.SetMemMapFs()
		s := store.New("anchors.json", nil)

		entered := make(chan struct{})
		hungErr := make(chan error, 1)

		e := New(Options{
			Store:         s,
			Interval:      time.Hour,
			Concurrency:   1,
			LookupTimeout: 50 * time.Millisecond,
			Checker: checkFunc(func(ctx context.Context, key anchor.Key) (anchor.Info, error) {
				if key.RoomID != "hung" {
					return live(key), nil
				}
				close(entered)
				<-ctx.Done()
				hungErr <- ctx.Err()
				return anchor.Info{}, ctx.Err()
			}),
		})
		errc := start(e)

		So(e.Send(Follow{Platform: anchor.Huya, RoomID: "hung"}), ShouldBeTrue)
		<-entered
		So(e.Send(Follow{Platform: anchor.Huya, RoomID: "ok"}), ShouldBeTrue)

		Convey("The hung lookup times out and the queued one gets the slot", func() {
			event, ok := waitEvent(e.Notifications(), func(ev Event) bool { return len(ev.Live) == 1 })
			So(ok, ShouldBeTrue)
			So(event.Live[0].Key.RoomID, ShouldEqual, "ok")
			So(errors.Is(<-hungErr, context.DeadlineExceeded), ShouldBeTrue)

			So(stop(e, errc), ShouldBeNil)
			So(s.Get(keyOf(anchor.Huya, "hung")).IsAbsent(), ShouldBeTrue)
		})
	})
}

func TestConcurrency(t *testing.T) {
	Convey("Given a burst of follows and a concurrency of 3", t, func() {
		filesystem.SetMemMapFs()
		s := store.New("anchors.json", nil)

		var current, peak atomic.Int32
		release := make(chan struct{})

		e := New(Options{
			Store:       s,
			Interval:    time.Hour,
			Concurrency: 3,
			Checker: checkFunc(func(ctx context.Context, key anchor.Key) (anchor.Info, error) {
				n := current.Add(1)
				defer current.Add(-1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}

				select {
				case <-release:
					return live(key), nil
				case <-ctx.Done():
					return anchor.Info{}, ctx.Err()
				}
			}),
		})
		errc := start(e)

		for i := 0; i < 12; i++ {
			So(e.Send(Follow{Platform: anchor.Douyin, RoomID: string(rune('a' + i))}), ShouldBeTrue)
		}

		Convey("No more than 3 lookups run at once and all complete", func() {
			deadline := time.Now().Add(waitTimeout)
			for current.Load() < 3 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			time.Sleep(50 * time.Millisecond)
			So(current.Load(), ShouldEqual, 3)

			close(release)

			_, ok := waitEvent(e.Notifications(), func(ev Event) bool { return len(ev.Live) == 12 })
			So(ok, ShouldBeTrue)
			So(peak.Load(), ShouldEqual, 3)

			So(stop(e, errc), ShouldBeNil)
		})
	})
}

func TestDedup(t *testing.T) {
	Convey("Given a slow lookup", t, func() {
		filesystem.SetMemMapFs()
		s := store.New("anchors.json", nil)
		key := keyOf(anchor.Huya, "1")
		s.AddConfigOnly(anchor.Info{Key: key})

		var calls atomic.Int32
		release := make(chan struct{})
		p := &fakePlayer{played: make(chan string, 1)}

		e := New(Options{
			Store:    s,
			Player:   p,
			Interval: time.Hour,
			Checker: checkFunc(func(ctx context.Context, key anchor.Key) (anchor.Info, error) {
				calls.Add(1)
				select {
				case <-release:
					return live(key), nil
				case <-ctx.Done():
					return anchor.Info{}, ctx.Err()
				}
			}),
		})
		errc := start(e)

		Convey("Refreshing again while in flight does not look it up twice", func() {
			So(e.Send(Refresh{}), ShouldBeTrue)
			So(e.Send(Refresh{}), ShouldBeTrue)
			So(e.Send(Follow{Platform: anchor.Huya, RoomID: "1"}), ShouldBeTrue)
			So(e.Send(Play{Sources: []string{"barrier"}}), ShouldBeTrue)

			So(<-p.played, ShouldEqual, "barrier")

			close(release)
			_, ok := waitEvent(e.Notifications(), func(ev Event) bool { return len(ev.Live) == 1 })
			So(ok, ShouldBeTrue)
			So(calls.Load(), ShouldEqual, 1)

			So(stop(e, errc), ShouldBeNil)
		})
	})
}

func TestPlay(t *testing.T) {
	Convey("Given an engine with a player", t, func() {
		filesystem.SetMemMapFs()
		p := &fakePlayer{played: make(chan string, 2)}
		e := New(Options{
			Store:    store.New("anchors.json", nil),
			Player:   p,
			Interval: time.Hour,
			Checker: checkFunc(func(context.Context, anchor.Key) (anchor.Info, error) {
				return anchor.Info{}, errors.New("unused")
			}),
		})
		errc := start(e)

		Convey("The first source is played and an empty list is ignored", func() {
			So(e.Send(Play{}), ShouldBeTrue)
			So(e.Send(Play{Sources: []string{"https://a/1.flv", "https://a/1.m3u8"}}), ShouldBeTrue)

			So(<-p.played, ShouldEqual, "https://a/1.flv")
			So(stop(e, errc), ShouldBeNil)
			So(p.played, ShouldBeEmpty)
		})
	})
}

func TestExit(t *testing.T) {
	Convey("Given a lookup still running at exit", t, func() {
		filesystem.SetMemMapFs()
		s := store.New("anchors.json", nil)

		entered := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once

		e := New(Options{
			Store:    s,
			Interval: time.Hour,
			Checker: checkFunc(func(_ context.Context, key anchor.Key) (anchor.Info, error) {
				once.Do(func() { close(entered) })
				// ignores cancellation on purpose, like a stuck script
				<-release
				return live(key), nil
			}),
		})
		errc := start(e)

		So(e.Send(Follow{Platform: anchor.Huya, RoomID: "1"}), ShouldBeTrue)
		<-entered

		Convey("Its result is discarded and the event stream ends", func() {
			So(stop(e, errc), ShouldBeNil)
			close(release)

			var events []Event
			for ev := range e.Notifications() {
				events = append(events, ev)
			}

			So(events, ShouldNotBeEmpty)
			for _, ev := range events {
				So(ev.Live, ShouldBeEmpty)
			}

			time.Sleep(50 * time.Millisecond)
			So(s.Len(), ShouldEqual, 0)
			So(e.Send(Refresh{}), ShouldBeFalse)
		})

		Convey("A second Run is refused", func() {
			So(e.Run(context.Background()), ShouldEqual, ErrRunning)
			So(stop(e, errc), ShouldBeNil)
			close(release)
		})
	})
}

func TestNotifier(t *testing.T) {
	Convey("Given a notifier with room for two events", t, func() {
		n := newNotifier(2, nil)

		Convey("A lagging consumer sees the latest snapshots", func() {
			for i := 0; i < 5; i++ {
				n.publish([]anchor.Info{{Key: keyOf(anchor.Huya, string(rune('0' + i)))}}, nil)
			}
			n.close()

			var seqs []uint64
			for ev := range n.ch {
				seqs = append(seqs, ev.Seq)
			}
			So(seqs, ShouldResemble, []uint64{4, 5})
		})
	})
}

func TestSync(t *testing.T) {
	Convey("Given followed anchors", t, func() {
		filesystem.SetMemMapFs()
		s := store.New("anchors.json", fakeResolver{})

		a, b := keyOf(anchor.Bilibili, "1"), keyOf(anchor.Huya, "2")
		s.AddConfigOnly(anchor.Info{Key: a})
		s.AddConfigOnly(anchor.Info{Key: b, Name: "saved"})

		e := New(Options{
			Store: s,
			Checker: checkFunc(func(_ context.Context, key anchor.Key) (anchor.Info, error) {
				if key == a {
					return live(key), nil
				}
				return anchor.Info{}, errors.New("timeout")
			}),
		})

		Convey("One report per anchor, failures included", func() {
			reports := e.Sync(context.Background())
			So(reports, ShouldHaveLength, 2)

			So(reports[0].Err, ShouldBeNil)
			So(reports[0].Info.Status.IsLive(), ShouldBeTrue)
			So(reports[0].Info.CoverPath, ShouldNotBeEmpty)

			So(reports[1].Err, ShouldNotBeNil)
			So(reports[1].Info.Status.State, ShouldEqual, anchor.Failed)
			So(reports[1].Info.Name, ShouldEqual, "saved")

			So(s.SnapshotLive(), ShouldHaveLength, 1)
			So(s.Len(), ShouldEqual, 2)
		})
	})
}
