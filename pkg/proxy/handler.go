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

package proxy

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gigamonster256/netkit/internal/errs"
	"github.com/gigamonster256/netkit/internal/logger"
	"github.com/gigamonster256/netkit/pkg/endpoint"
	"github.com/gigamonster256/netkit/pkg/httpmsg"
)

// DefaultUpstreamPort is the well-known HTTP port used when a request's
// host carries no explicit port.
const DefaultUpstreamPort = 80

// Handler drives the ten-step fetch/revalidate/store cycle of spec.md
// §4.G over a shared Cache. One Handler serves every connection the
// server accepts; the cache mutex, not a per-connection lock, is what
// makes that safe.
type Handler struct {
	cache        *Cache
	log          logger.Logger
	upstreamPort int
}

// NewHandler builds a Handler over cache. upstreamPort overrides
// DefaultUpstreamPort when non-zero, matching the "(or configured)" clause
// of spec.md §4.G step 6.
func NewHandler(cache *Cache, log logger.Logger, upstreamPort int) *Handler {
	if upstreamPort == 0 {
		upstreamPort = DefaultUpstreamPort
	}
	return &Handler{cache: cache, log: log, upstreamPort: upstreamPort}
}

// Handle implements server.StreamHandler.
func (h *Handler) Handle(ctx context.Context, ep *endpoint.Stream, _ any) {
	req, err := readRequestHead(ep)
	if err != nil {
		h.log.Entry(logger.DebugLevel, "proxy: malformed request").ErrorAdd(err).Log()
		return
	}
	if req.Request == nil {
		h.log.Entry(logger.DebugLevel, "proxy: expected a request, got a status line").Log()
		return
	}

	host, path, err := splitURI(req.Request.URI)
	if err != nil {
		h.log.Entry(logger.DebugLevel, "proxy: unparseable request URI").ErrorAdd(err).Log()
		return
	}
	key := Key(req.Request.URI)

	now := time.Now().UTC()
	h.cache.Lock()
	response, expiresAt, hit := h.cache.Lookup(key)
	var conditional string
	if hit {
		if now.Before(expiresAt) {
			h.cache.Touch(key, now)
			fresh := append([]byte(nil), response...)
			h.cache.Unlock()
			_ = ep.Writen(fresh)
			return
		}
		conditional = httpmsg.FormatDate(expiresAt)
	}
	h.cache.Unlock()

	upstreamResp, rawResp, err := h.fetchUpstream(host, path, conditional)
	if err != nil {
		h.log.Entry(logger.WarnLevel, "proxy: upstream fetch failed").ErrorAdd(err).Log()
		return
	}

	if hit && upstreamResp.Status != nil && upstreamResp.Status.Code == httpmsg.StatusNotModified {
		h.cache.Lock()
		h.cache.Touch(key, now)
		stored, _, _ := h.cache.Lookup(key)
		fresh := append([]byte(nil), stored...)
		h.cache.Unlock()
		_ = ep.Writen(fresh)
		return
	}

	newExpiresAt := computeExpiresAt(upstreamResp, now)
	_ = ep.Writen(rawResp)

	h.cache.Lock()
	h.cache.Store(key, rawResp, now, newExpiresAt)
	h.cache.Unlock()
}

// readRequestHead reads downstream bytes until the blank line that
// terminates the header block (spec.md §4.G step 1) and parses them as an
// HTTP request, without blocking on a body the client never sends.
func readRequestHead(ep *endpoint.Stream) (*httpmsg.Message, error) {
	br := bufio.NewReader(ep)
	var head bytes.Buffer
	for {
		line, err := br.ReadString('\n')
		head.WriteString(line)
		if err != nil {
			return nil, errs.Wrap(errs.CodeProtocol, err, "proxy: reading request head")
		}
		if line == "\r\n" || line == "\n" {
			break
		}
	}
	return httpmsg.Parse(bytes.NewReader(head.Bytes()))
}

// splitURI implements spec.md §4.G step 2: strip the scheme, split into
// host and path, defaulting path to "/".
func splitURI(uri string) (host, path string, err error) {
	rest := strings.TrimPrefix(uri, "http://")
	if rest == uri {
		return "", "", errs.New(errs.CodeProtocol, "proxy: only absolute http:// URIs are supported, got %q", uri)
	}
	i := strings.IndexByte(rest, '/')
	if i < 0 {
		return rest, "/", nil
	}
	return rest[:i], rest[i:], nil
}

// fetchUpstream implements spec.md §4.G steps 6-7: open a connection to the
// upstream host, send the (possibly conditional) request, and parse the
// response. It returns both the parsed message and its raw serialized bytes
// so the caller can forward and cache identical bytes.
func (h *Handler) fetchUpstream(host, path, ifModifiedSince string) (*httpmsg.Message, []byte, error) {
	hostname, port := splitHostPort(host, h.upstreamPort)

	conn, err := endpoint.Dial(hostname, strconv.Itoa(port))
	if err != nil {
		return nil, nil, err
	}
	defer conn.Close()

	req := &httpmsg.Message{
		Request: &httpmsg.RequestLine{Method: httpmsg.MethodGet, URI: path, Version: httpmsg.DefaultVersion},
		Headers: []httpmsg.Header{
			{Name: httpmsg.HeaderHost, Value: host},
			{Name: httpmsg.HeaderConnection, Value: "close"},
		},
	}
	if ifModifiedSince != "" {
		req.Headers = append(req.Headers, httpmsg.Header{Name: httpmsg.HeaderIfModSince, Value: ifModifiedSince})
	}

	var reqBuf bytes.Buffer
	if err := req.Write(&reqBuf); err != nil {
		return nil, nil, err
	}
	if err := conn.Writen(reqBuf.Bytes()); err != nil {
		return nil, nil, err
	}

	resp, err := httpmsg.Parse(conn.Conn())
	if err != nil {
		return nil, nil, err
	}
	var respBuf bytes.Buffer
	if err := resp.Write(&respBuf); err != nil {
		return nil, nil, err
	}
	return resp, respBuf.Bytes(), nil
}

func splitHostPort(host string, defaultPort int) (string, int) {
	h, p, err := net.SplitHostPort(host)
	if err != nil {
		return host, defaultPort
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return h, defaultPort
	}
	return h, port
}

// computeExpiresAt implements spec.md §4.G step 8's first-matching rule.
// The Last-Modified branch intentionally treats the resource as stale from
// "now" rather than fresh until Last-Modified — see spec.md §9 and
// DESIGN.md for why this quirk is preserved rather than fixed.
func computeExpiresAt(resp *httpmsg.Message, now time.Time) time.Time {
	if v, ok := resp.Header(httpmsg.HeaderExpires); ok {
		return httpmsg.ParseExpires(v)
	}
	if _, ok := resp.LastModified(); ok {
		return now
	}
	if t, ok := resp.Date(); ok {
		return t
	}
	return now
}
