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
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gigamonster256/netkit/internal/errs"
)

// Header is a single, order-preserved header field. Name is kept as written;
// comparisons elsewhere are case-sensitive per spec.md §6.
type Header struct {
	Name  string
	Value string
}

// Message is either a request or a response, depending on which of
// Request/Status is non-nil, plus its headers and body.
type Message struct {
	Request *RequestLine
	Status  *StatusLine
	Headers []Header
	Body    []byte
}

// Header returns the first header matching name, if any.
func (m *Message) Header(name string) (string, bool) {
	for _, h := range m.Headers {
		if h.Name == name {
			return h.Value, true
		}
	}
	return "", false
}

// SetHeader replaces the first header matching name, appending if absent.
func (m *Message) SetHeader(name, value string) {
	for i, h := range m.Headers {
		if h.Name == name {
			m.Headers[i].Value = value
			return
		}
	}
	m.Headers = append(m.Headers, Header{Name: name, Value: value})
}

// Date returns the parsed Date header, if present and well-formed.
func (m *Message) Date() (time.Time, bool) {
	v, ok := m.Header(HeaderDate)
	if !ok {
		return time.Time{}, false
	}
	t, err := ParseDate(v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// LastModified returns the parsed Last-Modified header, if present and
// well-formed (strict parse per spec.md §4.F).
func (m *Message) LastModified() (time.Time, bool) {
	v, ok := m.Header(HeaderLastModified)
	if !ok {
		return time.Time{}, false
	}
	t, err := ParseDate(v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Expires returns the parsed Expires header using the lenient contract:
// absent headers return ok=false, but an unparseable or zero value still
// resolves to "now" per spec.md §4.F rather than a failure.
func (m *Message) Expires() (time.Time, bool) {
	v, ok := m.Header(HeaderExpires)
	if !ok {
		return time.Time{}, false
	}
	return ParseExpires(v), true
}

// Parse reads one HTTP/1.0 message (request or response) from r, following
// spec.md §4.F's three-step grammar: first line, headers until a blank
// line, then any remaining bytes as the body.
func Parse(r io.Reader) (*Message, error) {
	br := bufio.NewReader(r)

	firstLine, err := readLine(br)
	if err != nil {
		return nil, errs.Wrap(errs.CodeProtocol, err, "httpmsg: reading first line")
	}

	m := &Message{}
	if strings.HasPrefix(firstLine, "HTTP/") {
		sl, err := parseStatusLine(firstLine)
		if err != nil {
			return nil, err
		}
		m.Status = &sl
	} else {
		rl, err := parseRequestLine(firstLine)
		if err != nil {
			return nil, err
		}
		m.Request = &rl
	}

	for {
		line, err := readLine(br)
		if err != nil {
			return nil, errs.Wrap(errs.CodeProtocol, err, "httpmsg: reading headers")
		}
		if line == "" {
			break
		}
		h, err := parseHeader(line)
		if err != nil {
			return nil, err
		}
		m.Headers = append(m.Headers, h)
	}

	body, err := io.ReadAll(br)
	if err != nil {
		return nil, errs.Wrap(errs.CodeTransient, err, "httpmsg: reading body")
	}
	m.Body = body
	return m, nil
}

// readLine reads one CRLF-terminated line, with the terminator stripped.
// A bare LF is tolerated for leniency with non-conforming peers.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	return line, nil
}

func parseRequestLine(line string) (RequestLine, error) {
	parts := strings.Split(line, " ")
	if len(parts) < 2 {
		return RequestLine{}, errs.New(errs.CodeProtocol, "httpmsg: malformed request-line %q", line)
	}
	version := DefaultVersion
	if len(parts) >= 3 {
		version = parts[2]
	}
	return RequestLine{Method: Method(parts[0]), URI: parts[1], Version: version}, nil
}

func parseStatusLine(line string) (StatusLine, error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return StatusLine{}, errs.New(errs.CodeProtocol, "httpmsg: malformed status-line %q", line)
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return StatusLine{}, errs.Wrap(errs.CodeProtocol, err, "httpmsg: malformed status code %q", parts[1])
	}
	reason := ""
	if len(parts) == 3 {
		reason = parts[2]
	}
	return StatusLine{Version: parts[0], Code: code, Reason: reason}, nil
}

func parseHeader(line string) (Header, error) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return Header{}, errs.New(errs.CodeProtocol, "httpmsg: malformed header %q", line)
	}
	name := line[:i]
	value := strings.TrimLeft(line[i+1:], " \t")
	return Header{Name: name, Value: value}, nil
}

// Write serializes m back to wire form.
func (m *Message) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	var firstLine string
	switch {
	case m.Request != nil:
		firstLine = m.Request.String()
	case m.Status != nil:
		firstLine = m.Status.String()
	default:
		return errs.New(errs.CodeProtocol, "httpmsg: message has neither request-line nor status-line")
	}
	if _, err := bw.WriteString(firstLine + "\r\n"); err != nil {
		return errs.Wrap(errs.CodeTransient, err, "httpmsg: writing first line")
	}

	for _, h := range m.Headers {
		if _, err := bw.WriteString(h.Name + ": " + h.Value + "\r\n"); err != nil {
			return errs.Wrap(errs.CodeTransient, err, "httpmsg: writing header")
		}
	}
	if _, err := bw.WriteString("\r\n"); err != nil {
		return errs.Wrap(errs.CodeTransient, err, "httpmsg: writing header terminator")
	}
	if len(m.Body) > 0 {
		if _, err := bw.Write(m.Body); err != nil {
			return errs.Wrap(errs.CodeTransient, err, "httpmsg: writing body")
		}
	}
	return bw.Flush()
}
