package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeResolver struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeResolver) Resolve(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, url)
	if err, ok := f.fail[url]; ok {
		return "", err
	}

	path := filepath.Join("assets", filepath.Base(url)+".png")
	return path, filesystem.API().WriteFile(path, []byte("png"), 0o644)
}

func liveInfo(platform anchor.Platform, room, title string) anchor.Info {
	return anchor.Info{
		Key:       anchor.Key{Platform: platform, RoomID: room},
		Name:      "anchor " + room,
		Title:     title,
		CoverURL:  "https://cdn.example.com/cover/" + room + ".jpg",
		AvatarURL: "https://cdn.example.com/avatar/" + room + ".jpg",
		Status: anchor.LiveStatus(title, []anchor.Source{
			{Format: "flv", URL: "https://stream.example.com/" + room + ".flv"},
		}),
	}
}

func TestStore(t *testing.T) {
	Convey("Given an empty store", t, func() {
		filesystem.SetMemMapFs()
		resolver := &fakeResolver{fail: map[string]error{}}
		s := New("anchors.json", resolver)
		ctx := context.Background()

		Convey("A live anchor lands in both sets with local asset paths", func() {
			prev, err := s.AddOrUpdateLive(ctx, liveInfo(anchor.Huya, "123", "t1"))
			So(err, ShouldBeNil)
			So(prev.IsAbsent(), ShouldBeTrue)

			live := s.SnapshotLive()
			So(live, ShouldHaveLength, 1)
			So(live[0].CoverPath, ShouldEqual, filepath.Join("assets", "123.jpg.png"))
			So(live[0].AvatarPath, ShouldNotBeEmpty)
			So(s.Len(), ShouldEqual, 1)

			Convey("Adding the same key again replaces it", func() {
				prev, err := s.AddOrUpdateLive(ctx, liveInfo(anchor.Huya, "123", "t2"))
				So(err, ShouldBeNil)
				So(prev.MustGet().Title, ShouldEqual, "t1")

				So(s.Len(), ShouldEqual, 1)
				live := s.SnapshotLive()
				So(live, ShouldHaveLength, 1)
				So(live[0].Title, ShouldEqual, "t2")
			})

			Convey("Remove is idempotent and clears both sets", func() {
				key := anchor.Key{Platform: anchor.Huya, RoomID: "123"}
				So(s.Remove(key), ShouldBeTrue)
				So(s.Remove(key), ShouldBeFalse)
				So(s.SnapshotLive(), ShouldBeEmpty)
				So(s.SnapshotConfigured(), ShouldBeEmpty)
			})

			Convey("Marking it offline drops it from the live set only", func() {
				key := anchor.Key{Platform: anchor.Huya, RoomID: "123"}
				wasLive, err := s.MarkOffline(key, anchor.Info{Title: "rerun"})
				So(err, ShouldBeNil)
				So(wasLive, ShouldBeTrue)
				So(s.SnapshotLive(), ShouldBeEmpty)

				info := s.Get(key).MustGet()
				So(info.Status.State, ShouldEqual, anchor.Offline)
				So(info.Title, ShouldEqual, "rerun")
				So(info.CoverPath, ShouldNotBeEmpty)
			})
		})

		Convey("An asset failure stores nothing", func() {
			info := liveInfo(anchor.Douyu, "9", "t")
			resolver.fail[info.AvatarURL] = errors.New("boom")

			_, err := s.AddOrUpdateLive(ctx, info)
			So(err, ShouldNotBeNil)
			So(s.Len(), ShouldEqual, 0)
			So(s.SnapshotLive(), ShouldBeEmpty)
		})

		Convey("Empty asset URLs leave paths empty", func() {
			info := liveInfo(anchor.Douyu, "9", "t")
			info.CoverURL, info.AvatarURL = "", ""

			_, err := s.AddOrUpdateLive(ctx, info)
			So(err, ShouldBeNil)
			So(resolver.calls, ShouldBeEmpty)
			So(s.SnapshotLive()[0].CoverPath, ShouldBeEmpty)
		})

		Convey("A config-only anchor is followed but never live", func() {
			s.AddConfigOnly(liveInfo(anchor.Bilibili, "7", "t"))

			So(s.Len(), ShouldEqual, 1)
			So(s.SnapshotLive(), ShouldBeEmpty)
			So(s.Get(anchor.Key{Platform: anchor.Bilibili, RoomID: "7"}).MustGet().Status.State, ShouldEqual, anchor.Offline)
		})

		Convey("Update refuses anchors that are not followed", func() {
			_, err := s.Update(liveInfo(anchor.Huya, "404", "t"))
			So(errors.Is(err, ErrNotTracked), ShouldBeTrue)
			So(s.Len(), ShouldEqual, 0)

			_, err = s.MarkOffline(anchor.Key{Platform: anchor.Huya, RoomID: "404"}, anchor.Info{})
			So(errors.Is(err, ErrNotTracked), ShouldBeTrue)
		})

		Convey("A live entry is never left without a configured one", func() {
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(2)
				go func() {
					defer wg.Done()
					s.Admit(liveInfo(anchor.Huya, "1", "t"))
				}()
				go func() {
					defer wg.Done()
					s.Remove(anchor.Key{Platform: anchor.Huya, RoomID: "1"})
				}()
			}
			wg.Wait()

			configured := make(map[anchor.Key]bool)
			for _, info := range s.SnapshotConfigured() {
				configured[info.Key] = true
			}
			for _, info := range s.SnapshotLive() {
				So(configured[info.Key], ShouldBeTrue)
			}
		})

		Convey("A combined snapshot agrees with itself under concurrent changes", func() {
			key := anchor.Key{Platform: anchor.Huya, RoomID: "1"}
			s.AddConfigOnly(anchor.Info{Key: key})

			done := make(chan struct{})
			go func() {
				defer close(done)
				for i := 0; i < 200; i++ {
					s.Admit(liveInfo(anchor.Huya, "1", "t"))
					_, _ = s.MarkOffline(key, anchor.Info{})
				}
			}()

			for i := 0; i < 200; i++ {
				live, configured := s.Snapshot()
				So(configured, ShouldHaveLength, 1)
				So(configured[0].Status.IsLive(), ShouldEqual, len(live) == 1)
			}
			<-done
		})

		Convey("Snapshots are sorted and detached from the store", func() {
			s.Admit(liveInfo(anchor.Huya, "2", "t"))
			s.Admit(liveInfo(anchor.Bilibili, "9", "t"))
			s.Admit(liveInfo(anchor.Huya, "1", "t"))

			live := s.SnapshotLive()
			So(live[0].Key.String(), ShouldEqual, "bilibili/9")
			So(live[1].Key.String(), ShouldEqual, "huya/1")
			So(live[2].Key.String(), ShouldEqual, "huya/2")

			live[0].Status.Sources[0].URL = "changed"
			So(s.SnapshotLive()[0].Status.Sources[0].URL, ShouldNotEqual, "changed")
		})
	})
}

func TestPersistence(t *testing.T) {
	Convey("Given a store with anchors", t, func() {
		filesystem.SetMemMapFs()
		s := New(filepath.Join("config", "anchors.json"), &fakeResolver{})

		_, err := s.AddOrUpdateLive(context.Background(), liveInfo(anchor.Huya, "123", "t"))
		So(err, ShouldBeNil)
		s.AddConfigOnly(anchor.Info{Key: anchor.Key{Platform: anchor.Douyu, RoomID: "9"}})

		So(s.Persist(), ShouldBeNil)

		Convey("The file holds the configured set without status", func() {
			data, err := filesystem.API().ReadFile(s.Path())
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"anchors": [`)
			So(string(data), ShouldContainSubstring, `"platform": "huya"`)
			So(string(data), ShouldNotContainSubstring, "status")
			So(string(data), ShouldNotContainSubstring, "stream.example.com")
		})

		Convey("Loading restores the configured set as offline", func() {
			loaded := New(s.Path(), nil)
			infos, err := loaded.Load()
			So(err, ShouldBeNil)
			So(infos, ShouldHaveLength, 2)
			So(infos[0].Key.String(), ShouldEqual, "douyu/9")
			So(infos[1].CoverPath, ShouldEqual, filepath.Join("assets", "123.jpg.png"))
			So(loaded.SnapshotLive(), ShouldBeEmpty)
		})

		Convey("Paths of files gone from the cache are dropped on load", func() {
			So(filesystem.API().Remove(filepath.Join("assets", "123.jpg.png")), ShouldBeNil)

			infos, err := New(s.Path(), nil).Load()
			So(err, ShouldBeNil)
			So(infos[1].CoverPath, ShouldBeEmpty)
			So(infos[1].CoverURL, ShouldNotBeEmpty)
		})
	})

	Convey("Given no anchors file", t, func() {
		filesystem.SetMemMapFs()

		Convey("Load returns an empty set", func() {
			infos, err := New("missing.json", nil).Load()
			So(err, ShouldBeNil)
			So(infos, ShouldBeEmpty)
		})
	})

	Convey("Given a corrupt anchors file", t, func() {
		filesystem.SetMemMapFs()
		So(filesystem.API().WriteFile("anchors.json", []byte("{not json"), 0o644), ShouldBeNil)

		Convey("Load fails with PersistenceError", func() {
			_, err := New("anchors.json", nil).Load()

			var persistErr *PersistenceError
			So(errors.As(err, &persistErr), ShouldBeTrue)
			So(persistErr.Op, ShouldEqual, "parse")
		})
	})
}
