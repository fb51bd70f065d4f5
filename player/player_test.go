package player

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/seamui/seamui/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestSanitizeMediaTarget(t *testing.T) {
	Convey("Stream urls are accepted", t, func() {
		for _, link := range []string{
			"https://example.com/live.flv",
			"http://example.com/live.m3u8?token=1",
			"rtmp://example.com/app/stream",
		} {
			target, err := sanitizeMediaTarget(link)
			So(err, ShouldBeNil)
			So(target, ShouldEqual, link)
		}
	})

	Convey("Flags, control characters and other schemes are rejected", t, func() {
		for _, link := range []string{
			"",
			"--script=evil.lua",
			"https://example.com/\nlive.flv",
			"file:///etc/passwd",
			"javascript:alert(1)",
		} {
			_, err := sanitizeMediaTarget(link)
			So(err, ShouldNotBeNil)
		}
	})
}

func TestExternal(t *testing.T) {
	Convey("Given an external player", t, func() {
		viper.Set(key.PlayerPath, "mpv")
		viper.Set(key.PlayerArgs, []string{"--no-terminal"})

		Convey("The url comes last, after the configured args", func() {
			cmd, err := (&External{}).command("https://example.com/live.flv")
			So(err, ShouldBeNil)
			So(cmd.Args, ShouldResemble, []string{"mpv", "--no-terminal", "https://example.com/live.flv"})
		})

		Convey("Explicit fields win over the configuration", func() {
			cmd, err := (&External{Path: "vlc", Args: []string{}}).command("https://example.com/live.flv")
			So(err, ShouldBeNil)
			So(cmd.Args, ShouldResemble, []string{"vlc", "https://example.com/live.flv"})
		})

		Convey("A bad url is a player Error", func() {
			err := (&External{}).Play("-x")

			var playerErr *Error
			So(errors.As(err, &playerErr), ShouldBeTrue)
		})

		Convey("A missing executable is a player Error", func() {
			err := (&External{Path: "/nonexistent/seamui-player"}).Play("https://example.com/live.flv")

			var playerErr *Error
			So(errors.As(err, &playerErr), ShouldBeTrue)
		})

		Convey("A real executable is started", func() {
			path, err := exec.LookPath("true")
			if err != nil {
				SkipSo(err, ShouldBeNil)
				return
			}

			So((&External{Path: path, Args: []string{}}).Play("https://example.com/live.flv"), ShouldBeNil)
		})
	})
}
