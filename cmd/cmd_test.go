package cmd

import (
	"testing"

	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/key"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseKeyArgs(t *testing.T) {
	Convey("parseKeyArgs", t, func() {
		Convey("Accepts two arguments", func() {
			k, err := parseKeyArgs([]string{"huya", "123"})
			So(err, ShouldBeNil)
			So(k, ShouldResemble, anchor.Key{Platform: anchor.Huya, RoomID: "123"})
		})

		Convey("Accepts platform/room and aliases", func() {
			k, err := parseKeyArgs([]string{"bili/21452505"})
			So(err, ShouldBeNil)
			So(k, ShouldResemble, anchor.Key{Platform: anchor.Bilibili, RoomID: "21452505"})
		})

		Convey("Suggests the closest platform", func() {
			_, err := parseKeyArgs([]string{"huyaa", "1"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "huya")
		})

		Convey("Rejects a single argument without a slash", func() {
			_, err := parseKeyArgs([]string{"huya"})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestParseValue(t *testing.T) {
	Convey("parseValue follows the type of the default", t, func() {
		v, err := parseValue(key.PollInterval, []string{"30"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 30)

		v, err = parseValue(key.TUIShowOffline, []string{"true"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, true)

		v, err = parseValue(key.PlayerArgs, []string{"--mute", "--fs"})
		So(err, ShouldBeNil)
		So(v, ShouldResemble, []string{"--mute", "--fs"})

		_, err = parseValue(key.PollInterval, []string{"soon"})
		So(err, ShouldNotBeNil)
	})
}

func TestErrUnknownKey(t *testing.T) {
	Convey("Unknown config keys suggest the closest one", t, func() {
		So(errUnknownKey("player.pth").Error(), ShouldContainSubstring, key.PlayerPath)
	})
}
