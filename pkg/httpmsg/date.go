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

package httpmsg

import (
	"time"

	"github.com/gigamonster256/netkit/internal/errs"
)

// The three date layouts an HTTP/1.0 peer may emit, per RFC 1945 §3.3.
const (
	rfc1123Layout = "Mon, 02 Jan 2006 15:04:05 GMT"
	rfc850Layout  = "Monday, 02-Jan-06 15:04:05 GMT"
	ansicLayout   = "Mon Jan _2 15:04:05 2006"
)

var dateLayouts = []string{rfc1123Layout, rfc850Layout, ansicLayout}

// ParseDate tolerates all three historical HTTP date formats.
func ParseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, errs.Wrap(errs.CodeProtocol, lastErr, "httpmsg: unparseable date %q", s)
}

// FormatDate renders t canonically as RFC 1123 GMT, the only format a
// compliant emitter should ever write.
func FormatDate(t time.Time) string {
	return t.UTC().Format(rfc1123Layout)
}

// ParseExpires implements the Expires header's lenient contract: an
// unparseable or zero-valued date means "expires immediately" rather than a
// parse failure.
func ParseExpires(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil || t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
