/*
MIT License

Copyright (c) 2026 netkit contributors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package proxy_test

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gigamonster256/netkit/internal/logger"
	"github.com/gigamonster256/netkit/pkg/endpoint"
	"github.com/gigamonster256/netkit/pkg/proxy"
)

// stubResponse is one canned HTTP/1.0 response an upstreamStub can answer
// with, keyed by connection order.
type stubResponse struct {
	status string // e.g. "200 OK" or "304 Not Modified"
	body   string
	extra  string // extra raw headers, CRLF-joined, no trailing CRLF
}

// upstreamStub is a one-response-per-connection HTTP/1.0 origin server used
// to drive the handler's upstream-fetch path without a real network host.
// Each accepted connection consumes the next configured response, holding
// on the last one once exhausted.
type upstreamStub struct {
	ln        net.Listener
	hits      int32
	responses []stubResponse
	lastReq   atomic.Value // string
}

func newUpstreamStub(t *testing.T, responses ...stubResponse) *upstreamStub {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	u := &upstreamStub{ln: ln, responses: responses}
	go u.serve()
	t.Cleanup(func() { ln.Close() })
	return u
}

func (u *upstreamStub) serve() {
	for {
		conn, err := u.ln.Accept()
		if err != nil {
			return
		}
		go func() {
			defer conn.Close()
			buf := make([]byte, 4096)
			n, _ := conn.Read(buf)
			u.lastReq.Store(string(buf[:n]))

			idx := int(atomic.AddInt32(&u.hits, 1)) - 1
			if idx >= len(u.responses) {
				idx = len(u.responses) - 1
			}
			r := u.responses[idx]

			resp := fmt.Sprintf("HTTP/1.0 %s\r\n", r.status)
			if r.extra != "" {
				resp += r.extra + "\r\n"
			}
			resp += fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(r.body), r.body)
			_, _ = conn.Write([]byte(resp))
		}()
	}
}

func (u *upstreamStub) port() int {
	return u.ln.Addr().(*net.TCPAddr).Port
}

func (u *upstreamStub) hitCount() int32 { return atomic.LoadInt32(&u.hits) }

func (u *upstreamStub) lastRequest() string {
	v, _ := u.lastReq.Load().(string)
	return v
}

// sendRequestAndRead drives one Handle() call over an in-memory pipe and
// returns the downstream bytes the handler wrote back.
func sendRequestAndRead(t *testing.T, h *proxy.Handler, uri string) string {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	ep := endpoint.NewStream(serverConn)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Handle(context.Background(), ep, nil)
	}()

	req := "GET " + uri + " HTTP/1.0\r\nHost: ignored\r\n\r\n"
	if _, err := clientConn.Write([]byte(req)); err != nil {
		t.Fatalf("client write: %v", err)
	}

	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 65536)
	n, _ := clientConn.Read(buf) // handler closes nothing; read whatever arrives before EOF/timeout
	_ = clientConn.Close()
	<-done
	return string(buf[:n])
}

func TestHandlerFetchesAndCachesFreshResponse(t *testing.T) {
	upstream := newUpstreamStub(t, stubResponse{
		status: "200 OK", body: "hello from origin", extra: "Expires: " + futureHTTPDate(),
	})

	cache := proxy.NewCache()
	h := proxy.NewHandler(cache, logger.New(), upstream.port())

	uri := "http://127.0.0.1:" + strconv.Itoa(upstream.port()) + "/page"

	first := sendRequestAndRead(t, h, uri)
	if !strings.Contains(first, "hello from origin") {
		t.Fatalf("first response missing body: %q", first)
	}
	if got := upstream.hitCount(); got != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", got)
	}

	second := sendRequestAndRead(t, h, uri)
	if !strings.Contains(second, "hello from origin") {
		t.Fatalf("second response missing body: %q", second)
	}
	if got := upstream.hitCount(); got != 1 {
		t.Fatalf("expected cache hit to avoid a second upstream request, got %d hits", got)
	}
}

func TestHandlerRevalidatesStaleEntryOn304(t *testing.T) {
	// First connection serves a stale (Expires in the past) 200; every
	// subsequent connection answers 304, so the second client request must
	// exercise the conditional-GET revalidation path and still return the
	// originally cached body.
	upstream := newUpstreamStub(t,
		stubResponse{status: "200 OK", body: "original body", extra: "Expires: " + pastHTTPDate()},
		stubResponse{status: "304 Not Modified"},
	)

	cache := proxy.NewCache()
	h := proxy.NewHandler(cache, logger.New(), upstream.port())
	uri := "http://127.0.0.1:" + strconv.Itoa(upstream.port()) + "/stale"

	first := sendRequestAndRead(t, h, uri)
	if !strings.Contains(first, "original body") {
		t.Fatalf("first response missing body: %q", first)
	}

	second := sendRequestAndRead(t, h, uri)
	if !strings.Contains(second, "original body") {
		t.Fatalf("expected stale-then-revalidated response to still contain original body: %q", second)
	}
	if got := upstream.hitCount(); got != 2 {
		t.Fatalf("expected exactly 2 upstream connections (fetch + revalidate), got %d", got)
	}
	if !strings.Contains(strings.ToLower(upstream.lastRequest()), "if-modified-since") {
		t.Fatalf("expected revalidation request to carry If-Modified-Since, got %q", upstream.lastRequest())
	}
}

func futureHTTPDate() string {
	return httpDate(time.Now().Add(time.Hour))
}

func pastHTTPDate() string {
	return httpDate(time.Now().Add(-time.Hour))
}

func httpDate(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT")
}
