package network

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seamui/seamui/constant"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGet(t *testing.T) {
	Convey("Given a test server", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/missing" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(r.Header.Get("User-Agent")))
		}))
		defer server.Close()

		Convey("The body is returned and the User-Agent is set", func() {
			body, err := Get(context.Background(), server.Client(), server.URL+"/ok")
			So(err, ShouldBeNil)
			defer body.Close()

			data, err := io.ReadAll(body)
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, constant.UserAgent)
		})

		Convey("Non-2xx responses become StatusError", func() {
			_, err := Get(context.Background(), server.Client(), server.URL+"/missing")

			var statusErr *StatusError
			So(errors.As(err, &statusErr), ShouldBeTrue)
			So(statusErr.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
