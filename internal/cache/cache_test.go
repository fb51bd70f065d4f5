package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/seamui/seamui/filesystem"
	"github.com/seamui/seamui/where"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResponses(t *testing.T) {
	Convey("Given an empty response cache", t, func() {
		filesystem.SetMemMapFs()

		type entry struct {
			Status int    `json:"status"`
			Body   string `json:"body"`
		}

		key := GenerateKey("https://example.com", "GET")

		Convey("Keys are stable and distinct", func() {
			So(key, ShouldEqual, GenerateKey("https://example.com", "GET"))
			So(key, ShouldNotEqual, GenerateKey("https://example.com", "POST"))
		})

		Convey("A missing entry is a miss", func() {
			var e entry
			So(Read(key, TTL, &e), ShouldBeFalse)
		})

		Convey("A written entry is read back", func() {
			So(Write(key, entry{Status: 200, Body: "ok"}), ShouldBeNil)

			var e entry
			So(Read(key, TTL, &e), ShouldBeTrue)
			So(e.Body, ShouldEqual, "ok")
		})

		Convey("An expired entry is a miss", func() {
			So(Write(key, entry{Status: 200}), ShouldBeNil)
			old := time.Now().Add(-2 * TTL)
			So(filesystem.API().Chtimes(filepath.Join(where.Responses(), key), old, old), ShouldBeNil)

			var e entry
			So(Read(key, TTL, &e), ShouldBeFalse)
		})
	})
}

func TestPrune(t *testing.T) {
	Convey("Prune removes only old files", t, func() {
		filesystem.SetMemMapFs()
		dir := "/prune"
		fresh := filepath.Join(dir, "fresh")
		stale := filepath.Join(dir, "stale")

		So(filesystem.API().WriteFile(fresh, []byte("x"), 0o644), ShouldBeNil)
		So(filesystem.API().WriteFile(stale, []byte("x"), 0o644), ShouldBeNil)
		old := time.Now().Add(-48 * time.Hour)
		So(filesystem.API().Chtimes(stale, old, old), ShouldBeNil)

		removed, err := Prune(dir, 24*time.Hour)
		So(err, ShouldBeNil)
		So(removed, ShouldEqual, 1)
		So(lo.Must(filesystem.API().Exists(fresh)), ShouldBeTrue)
		So(lo.Must(filesystem.API().Exists(stale)), ShouldBeFalse)
	})
}
