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

package endpoint

import (
	"errors"
	"io"
	"net"
	"net/netip"
	"strconv"
	"syscall"

	"github.com/gigamonster256/netkit/internal/errs"
)

// Stream is a bidirectional byte channel over a single connected socket,
// owned exclusively by whatever goroutine accepted or dialed it.
type Stream struct {
	conn net.Conn
	peer netip.Addr
}

// Dial connects to host:port, resolving host per the rules documented on
// Resolve, and returns the client-side Stream.
func Dial(host, port string) (*Stream, error) {
	peer, err := Resolve(host)
	if err != nil {
		return nil, err
	}

	conn, err := net.Dial("tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, errs.Wrap(errs.CodeFatal, err, "endpoint: dial %s:%s", host, port)
	}

	return &Stream{conn: conn, peer: peer}, nil
}

// NewStream wraps an already-accepted net.Conn, deriving the canonical peer
// address from its RemoteAddr.
func NewStream(conn net.Conn) *Stream {
	return &Stream{conn: conn, peer: CanonicalPeer(conn.RemoteAddr())}
}

// PeerIP returns the canonical IPv6 (or IPv4-mapped-IPv6) peer address.
func (s *Stream) PeerIP() netip.Addr { return s.peer }

// Conn exposes the underlying net.Conn for cases (deadlines, TLS, etc.) not
// covered by the readn/writen/readline contract.
func (s *Stream) Conn() net.Conn { return s.conn }

// Close closes the underlying connection.
func (s *Stream) Close() error { return s.conn.Close() }

// Read performs a single passthrough read, possibly short.
func (s *Stream) Read(buf []byte) (int, error) {
	return s.conn.Read(buf)
}

// Write performs a single passthrough write, possibly short.
func (s *Stream) Write(buf []byte) (int, error) {
	return s.conn.Write(buf)
}

// Writen writes exactly len(buf) bytes, retrying transient interruptions,
// and fails only on a fatal error.
func (s *Stream) Writen(buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := s.conn.Write(buf[total:])
		total += n
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return errs.Wrap(errs.CodeFatal, err, "endpoint: writen short after %d/%d bytes", total, len(buf))
		}
	}
	return nil
}

// Readn reads exactly len(buf) bytes, retrying transient interruptions, and
// fails with an UnexpectedEof-classed error on premature close.
func (s *Stream) Readn(buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := s.conn.Read(buf[total:])
		total += n
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			if errors.Is(err, io.EOF) && total < len(buf) {
				return errs.Wrap(errs.CodeFatal, io.ErrUnexpectedEOF, "endpoint: readn short after %d/%d bytes", total, len(buf))
			}
			return errs.Wrap(errs.CodeFatal, err, "endpoint: readn after %d/%d bytes", total, len(buf))
		}
	}
	return nil
}

// ReadLine reads byte-by-byte until LF or maxlen-1 bytes have been read. It
// null-terminates the result if a newline was seen and returns a length of 0
// on immediate EOF.
func (s *Stream) ReadLine(buf []byte, maxlen int) (int, error) {
	if maxlen <= 0 || maxlen > len(buf) {
		return 0, errs.New(errs.CodeConfig, "endpoint: readline: invalid maxlen %d for buffer of %d", maxlen, len(buf))
	}

	i := 0
	one := make([]byte, 1)
	for i < maxlen-1 {
		n, err := s.conn.Read(one)
		if n == 0 && err != nil {
			if errors.Is(err, io.EOF) && i == 0 {
				return 0, nil
			}
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return 0, errs.Wrap(errs.CodeFatal, err, "endpoint: readline after %d bytes", i)
		}
		if n == 1 {
			buf[i] = one[0]
			i++
			if one[0] == '\n' {
				break
			}
		}
	}
	buf[i] = 0
	return i, nil
}

// AddrPort formats the endpoint's bind target, used by servers when logging
// or constructing listeners.
func AddrPort(host, port string) string {
	if host == "" {
		host = "::"
	}
	return net.JoinHostPort(host, port)
}

// ParsePort validates a textual port, returning a typed config error on failure.
func ParsePort(port string) (int, error) {
	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return 0, errs.New(errs.CodeConfig, "endpoint: invalid port %q", port)
	}
	return p, nil
}
