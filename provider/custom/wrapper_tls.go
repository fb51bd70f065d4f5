package custom

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"github.com/seamui/seamui/constant"
	"github.com/seamui/seamui/internal/cache"
	lua "github.com/yuin/gopher-lua"
	"golang.org/x/net/http2"
)

// Several platforms reject the Go TLS fingerprint outright, so scripts get an
// http_tls module that handshakes with a Chrome ClientHello through utls.
// HTTP/2 is tried first; servers that refuse it get an HTTP/1.1-only handshake.
//
//	http_tls.get(url [, headers])  -> body
//	http_tls.request(options)      -> { status, body }
//
// request options: method, url, headers, body, cache (bool), ttl (seconds).

const httpTimeout = 30 * time.Second

func registerTLSClient(L *lua.LState) {
	mod := L.NewTable()
	L.SetField(mod, "get", L.NewFunction(httpTLSGet))
	L.SetField(mod, "request", L.NewFunction(httpTLSRequest))
	L.SetGlobal("http_tls", mod)
}

func httpTLSGet(L *lua.LState) int {
	url := L.CheckString(1)
	headers := headersFrom(L.OptTable(2, nil))

	body, _, err := doTLSRequest(luaContext(L), http.MethodGet, url, headers, "")
	if err != nil {
		L.RaiseError("http_tls.get failed: %s", err.Error())
		return 0
	}

	L.Push(lua.LString(body))
	return 1
}

func httpTLSRequest(L *lua.LState) int {
	opts := L.CheckTable(1)

	method := getStringField(opts, "method", http.MethodGet)
	url := getStringField(opts, "url", "")
	reqBody := getStringField(opts, "body", "")

	if url == "" {
		L.RaiseError("http_tls.request: url is required")
		return 0
	}

	shouldCache := lua.LVAsBool(opts.RawGetString("cache"))
	ttl := cache.TTL
	if seconds, ok := opts.RawGetString("ttl").(lua.LNumber); ok && seconds > 0 {
		ttl = time.Duration(float64(seconds) * float64(time.Second))
	}

	var headers map[string]string
	if tbl, ok := opts.RawGetString("headers").(*lua.LTable); ok {
		headers = headersFrom(tbl)
	}

	type tlsCacheEntry struct {
		Status int    `json:"status"`
		Body   string `json:"body"`
	}

	var cacheKey string
	if shouldCache {
		cacheKey = cache.GenerateKey(method, url, reqBody)
		var entry tlsCacheEntry
		if cache.Read(cacheKey, ttl, &entry) {
			L.Push(responseTable(L, entry.Status, entry.Body))
			return 1
		}
	}

	respBody, statusCode, err := doTLSRequest(luaContext(L), method, url, headers, reqBody)
	if err != nil {
		L.RaiseError("http_tls.request failed: %s", err.Error())
		return 0
	}

	if shouldCache && statusCode == http.StatusOK {
		_ = cache.Write(cacheKey, tlsCacheEntry{Status: statusCode, Body: respBody})
	}

	L.Push(responseTable(L, statusCode, respBody))
	return 1
}

func responseTable(L *lua.LState, status int, body string) *lua.LTable {
	result := L.NewTable()
	L.SetField(result, "status", lua.LNumber(status))
	L.SetField(result, "body", lua.LString(body))
	return result
}

func headersFrom(tbl *lua.LTable) map[string]string {
	headers := make(map[string]string)
	if tbl == nil {
		return headers
	}
	tbl.ForEach(func(k, v lua.LValue) {
		headers[k.String()] = v.String()
	})
	return headers
}

func getStringField(tbl *lua.LTable, key string, def string) string {
	val := tbl.RawGetString(key)
	if val == lua.LNil {
		return def
	}
	return val.String()
}

func luaContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

var (
	h2Transport     *http2.Transport
	h2TransportOnce sync.Once
)

func getH2Transport() *http2.Transport {
	h2TransportOnce.Do(func() {
		h2Transport = &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialTLS(ctx, network, addr, nil)
			},
		}
	})
	return h2Transport
}

var h1Transport = &http.Transport{
	DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialTLS(ctx, network, addr, []string{"http/1.1"})
	},
}

func newRequest(ctx context.Context, method, rawURL string, headers map[string]string, body string) (*http.Request, error) {
	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", constant.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// doTLSRequest returns the body and status code of the response.
func doTLSRequest(ctx context.Context, method, rawURL string, headers map[string]string, body string) (string, int, error) {
	req, err := newRequest(ctx, method, rawURL, headers, body)
	if err != nil {
		return "", 0, err
	}

	resp, err := (&http.Client{Timeout: httpTimeout, Transport: getH2Transport()}).Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", 0, ctx.Err()
		}

		req, err = newRequest(ctx, method, rawURL, headers, body)
		if err != nil {
			return "", 0, err
		}

		resp, err = (&http.Client{Timeout: httpTimeout, Transport: h1Transport}).Do(req)
		if err != nil {
			return "", 0, fmt.Errorf("request failed: %w", err)
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read body: %w", err)
	}

	return string(respBody), resp.StatusCode, nil
}

// dialTLS opens a connection with a Chrome 120 ClientHello.
// A nil alpn keeps Chrome's default h2 + http/1.1 advertisement.
func dialTLS(ctx context.Context, network, addr string, alpn []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: httpTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: alpn,
	}, utls.HelloChrome_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
