package custom

import (
	"testing"

	"github.com/seamui/seamui/anchor"
	. "github.com/smartystreets/goconvey/convey"
	lua "github.com/yuin/gopher-lua"
)

func TestRoomFromTable(t *testing.T) {
	Convey("roomFromTable", t, func() {
		L := lua.NewState()
		defer L.Close()

		eval := func(code string) *lua.LTable {
			So(L.DoString("result = "+code), ShouldBeNil)
			return L.GetGlobal("result").(*lua.LTable)
		}

		Convey("Should read a live room with ordered sources", func() {
			room, err := roomFromTable(eval(`{
				live = true, title = "t", anchor = "a", cover = "https://c/x.jpg", avatar = "https://a/y.webp",
				sources = { { format = "flv", url = "https://s/1.flv" }, { format = "m3u", url = "https://s/2.m3u8" } },
			}`))
			So(err, ShouldBeNil)
			So(room.Live, ShouldBeTrue)
			So(room.Anchor, ShouldEqual, "a")
			So(room.Sources, ShouldResemble, []anchor.Source{
				{Format: "flv", URL: "https://s/1.flv"},
				{Format: "m3u", URL: "https://s/2.m3u8"},
			})
		})

		Convey("Should accept bare URLs and guess their format", func() {
			room, err := roomFromTable(eval(`{ sources = { "https://s/a.m3u8?token=1", "rtmp://s/live" } }`))
			So(err, ShouldBeNil)
			So(room.Live, ShouldBeTrue)
			So(room.Sources[0].Format, ShouldEqual, "m3u")
			So(room.Sources[1].Format, ShouldEqual, "rtmp")
		})

		Convey("Should keep metadata of an offline room and drop its sources", func() {
			room, err := roomFromTable(eval(`{ live = false, anchor = "a", sources = { "https://s/a.flv" } }`))
			So(err, ShouldBeNil)
			So(room.Live, ShouldBeFalse)
			So(room.Anchor, ShouldEqual, "a")
			So(room.Sources, ShouldBeEmpty)
		})

		Convey("Should fail on a live room without sources", func() {
			_, err := roomFromTable(eval(`{ live = true }`))
			So(err, ShouldNotBeNil)
		})

		Convey("Should fail on a source without url", func() {
			_, err := roomFromTable(eval(`{ sources = { { format = "flv" } } }`))
			So(err, ShouldNotBeNil)
		})
	})
}
