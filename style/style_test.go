package style

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/seamui/seamui/anchor"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStyle(t *testing.T) {
	Convey("Renderers keep the text", t, func() {
		So(lipgloss.Width(Bold("live")), ShouldEqual, 4)
		So(State(anchor.Live)("on air"), ShouldContainSubstring, "on air")
		So(State(anchor.Failed)("oops"), ShouldContainSubstring, "oops")
	})

	Convey("Truncate limits the width", t, func() {
		So(lipgloss.Width(Truncate(3)("abcdef")), ShouldEqual, 3)
	})
}
