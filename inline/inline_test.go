package inline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/samber/mo"
	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/engine"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeSyncer []engine.Report

func (f fakeSyncer) Sync(context.Context) []engine.Report {
	return f
}

func reports() fakeSyncer {
	return fakeSyncer{
		{Info: anchor.Info{
			Key:    anchor.Key{Platform: anchor.Bilibili, RoomID: "1"},
			Name:   "alice",
			Status: anchor.LiveStatus("speedrun", []anchor.Source{{Format: "flv", URL: "https://x/1.flv"}}),
		}},
		{Info: anchor.Info{
			Key:    anchor.Key{Platform: anchor.Huya, RoomID: "2"},
			Name:   "bob",
			Status: anchor.OfflineStatus(),
		}},
		{
			Info: anchor.Info{Key: anchor.Key{Platform: anchor.Huya, RoomID: "3"}, Status: anchor.FailedStatus("timeout")},
			Err:  errors.New("timeout"),
		},
	}
}

func TestRun(t *testing.T) {
	Convey("Given a status report", t, func() {
		var buf bytes.Buffer

		Convey("JSON output carries every anchor and failures", func() {
			So(Run(context.Background(), reports(), &Options{Out: &buf, Json: true}), ShouldBeNil)

			var output Output
			So(json.Unmarshal(buf.Bytes(), &output), ShouldBeNil)
			So(output.Live, ShouldEqual, 1)
			So(output.Anchors, ShouldHaveLength, 3)
			So(output.Anchors[0].Platform, ShouldEqual, anchor.Bilibili)
			So(output.Anchors[0].Status.Sources[0].URL, ShouldEqual, "https://x/1.flv")
			So(output.Anchors[2].Error, ShouldEqual, "timeout")
			So(output.Anchors[2].Status.State, ShouldEqual, anchor.Failed)
		})

		Convey("Plain output has one line per anchor", func() {
			So(Run(context.Background(), reports(), &Options{Out: &buf}), ShouldBeNil)

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			So(lines, ShouldHaveLength, 3)
			So(lines[0], ShouldContainSubstring, "bilibili/1\talice\tspeedrun")
			So(lines[2], ShouldContainSubstring, "huya/3\t3\ttimeout")
		})

		Convey("URL output lists default sources of live anchors", func() {
			So(Run(context.Background(), reports(), &Options{Out: &buf, URLs: true}), ShouldBeNil)
			So(buf.String(), ShouldEqual, "https://x/1.flv\n")
		})

		Convey("A selector narrows the report", func() {
			selector, err := ParseSelector("huya")
			So(err, ShouldBeNil)

			So(Run(context.Background(), reports(), &Options{Out: &buf, Json: true, Selector: mo.Some(selector)}), ShouldBeNil)

			var output Output
			So(json.Unmarshal(buf.Bytes(), &output), ShouldBeNil)
			So(output.Anchors, ShouldHaveLength, 2)
			So(output.Anchors[1].Error, ShouldEqual, "timeout")
		})

		Convey("An empty report is an empty JSON list", func() {
			So(Run(context.Background(), fakeSyncer{}, &Options{Out: &buf, Json: true}), ShouldBeNil)

			var output Output
			So(json.Unmarshal(buf.Bytes(), &output), ShouldBeNil)
			So(output.Anchors, ShouldHaveLength, 0)
		})
	})
}

func TestParseSelector(t *testing.T) {
	Convey("Given anchors", t, func() {
		infos := make([]anchor.Info, 0, 3)
		for _, r := range reports() {
			infos = append(infos, r.Info)
		}

		count := func(description string) int {
			selector, err := ParseSelector(description)
			So(err, ShouldBeNil)
			return len(selector(infos))
		}

		So(count("all"), ShouldEqual, 3)
		So(count("live"), ShouldEqual, 1)
		So(count("offline"), ShouldEqual, 1)
		So(count("failed"), ShouldEqual, 1)
		So(count("bili"), ShouldEqual, 1)
		So(count("@spdrn@"), ShouldEqual, 1)

		_, err := ParseSelector("nope")
		So(err, ShouldNotBeNil)
	})
}

func TestWriteJSON(t *testing.T) {
	Convey("WriteJSON", t, func() {
		var buf bytes.Buffer

		Convey("nil is an empty array", func() {
			So(WriteJSON(&buf, nil), ShouldBeNil)
			So(strings.TrimSpace(buf.String()), ShouldEqual, "[]")
		})

		Convey("Anchors keep their key fields", func() {
			infos := []anchor.Info{{Key: anchor.Key{Platform: anchor.Douyu, RoomID: "9"}, Name: "bob"}}
			So(WriteJSON(&buf, infos), ShouldBeNil)

			var decoded []map[string]any
			So(json.Unmarshal(buf.Bytes(), &decoded), ShouldBeNil)
			So(decoded, ShouldHaveLength, 1)
			So(decoded[0]["platform"], ShouldEqual, "douyu")
			So(decoded[0]["room_id"], ShouldEqual, "9")
		})
	})
}
