package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMetrics(t *testing.T) {
	Convey("A nil Metrics ignores every call", t, func() {
		var m *Metrics
		So(func() {
			m.ObserveLookup("huya", ResultLive, time.Second)
			m.LookupStarted()
			m.LookupDone()
			m.SetAnchors(1, 1)
			m.IncAsset("hit")
			m.IncEventsDropped()
			m.IncRequests()
			m.IncErrors()
		}, ShouldNotPanic)
	})

	Convey("Given metrics", t, func() {
		m := New()

		Convey("Lookups are counted per platform and result", func() {
			m.ObserveLookup("huya", ResultLive, time.Second)
			m.ObserveLookup("huya", ResultFailed, time.Second)
			m.ObserveLookup("huya", ResultFailed, time.Second)

			body := scrape(m)
			So(body, ShouldContainSubstring, `seamui_lookups_total{platform="huya",result="failed"} 2`)
			So(body, ShouldContainSubstring, `seamui_lookups_total{platform="huya",result="live"} 1`)
		})

		Convey("The middleware counts error responses", func() {
			handler := RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/bad" {
					w.WriteHeader(http.StatusBadRequest)
				}
			}))

			for _, path := range []string{"/ok", "/bad"} {
				handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
			}

			body := scrape(m)
			So(body, ShouldContainSubstring, "seamui_http_requests_total 2")
			So(body, ShouldContainSubstring, "seamui_http_errors_total 1")
		})

		Convey("The handler refreshes gauges before a scrape", func() {
			rec := httptest.NewRecorder()
			m.Handler(func() { m.SetAnchors(3, 2) }).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			body, _ := io.ReadAll(rec.Body)
			So(string(body), ShouldContainSubstring, "seamui_anchors_live 2")
			So(string(body), ShouldContainSubstring, "seamui_anchors 3")
		})
	})
}

func scrape(m *Metrics) string {
	rec := httptest.NewRecorder()
	m.Handler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}
