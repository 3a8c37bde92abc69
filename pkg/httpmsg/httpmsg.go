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

// Package httpmsg implements the RFC 1945 subset of the HTTP/1.0 message
// grammar: request-line/status-line, headers, and the three date formats a
// compliant cache must tolerate on input while always emitting RFC 1123.
package httpmsg

import "fmt"

// Method is an HTTP request method. Recognized tokens get named constants;
// anything else round-trips through Extension.
type Method string

const (
	MethodGet  Method = "GET"
	MethodHead Method = "HEAD"
	MethodPost Method = "POST"
)

// Extension wraps an unrecognized method token so it still round-trips.
func Extension(token string) Method { return Method(token) }

// RequestLine is the first line of an HTTP request.
type RequestLine struct {
	Method  Method
	URI     string
	Version string
}

func (r RequestLine) String() string {
	return fmt.Sprintf("%s %s %s", r.Method, r.URI, r.Version)
}

// StatusLine is the first line of an HTTP response.
type StatusLine struct {
	Version string
	Code    int
	Reason  string
}

func (s StatusLine) String() string {
	return fmt.Sprintf("%s %d %s", s.Version, s.Code, s.Reason)
}

// Known status codes the proxy inspects directly.
const (
	StatusOK           = 200
	StatusNotModified  = 304
	StatusNotFound     = 404
	StatusServerError  = 500
)

// DefaultVersion is used when a request/response omits one.
const DefaultVersion = "HTTP/1.0"

// Header field names used by this package and its callers; typed accessors
// (Date, Expires, LastModified) handle the three date-valued fields.
const (
	HeaderDate         = "Date"
	HeaderExpires      = "Expires"
	HeaderLastModified = "Last-Modified"
	HeaderHost         = "Host"
	HeaderConnection   = "Connection"
	HeaderIfModSince   = "If-Modified-Since"
)
