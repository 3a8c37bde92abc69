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

package tftp

import (
	"errors"
	"io"
	"net"
	"os"
	"time"

	"github.com/gigamonster256/netkit/internal/logger"
	"github.com/gigamonster256/netkit/pkg/endpoint"
)

// blockTimeout is a var, not a const, so tests can shrink it to keep
// retransmit/timeout specs fast.
var blockTimeout = 10 * time.Second

const maxRetries = 5

// netasciiChunker re-chunks an arbitrarily-transformed byte stream back into
// fixed-size windows, needed because netascii encoding can expand a raw byte
// (LF -> CRLF) past the 512-byte DATA boundary the raw read was aligned to.
type netasciiChunker struct {
	r    io.Reader
	buf  []byte
	eof  bool
}

func (c *netasciiChunker) next(n int) ([]byte, error) {
	raw := make([]byte, 4096)
	for len(c.buf) < n && !c.eof {
		m, err := c.r.Read(raw)
		if m > 0 {
			c.buf = append(c.buf, EncodeNetascii(raw[:m])...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.eof = true
				break
			}
			return nil, err
		}
	}
	take := n
	if take > len(c.buf) {
		take = len(c.buf)
	}
	chunk := c.buf[:take]
	c.buf = c.buf[take:]
	return chunk, nil
}

func readUpTo(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	total := 0
	for total < n {
		m, err := r.Read(buf[total:])
		total += m
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if m == 0 {
			break
		}
	}
	return buf[:total], nil
}

func readDatagram(dg *endpoint.Datagram) (Packet, error) {
	buf := make([]byte, 65507)
	if err := dg.SetReadDeadline(time.Now().Add(blockTimeout)); err != nil {
		return Packet{}, err
	}
	n, err := dg.Read(buf)
	if err != nil {
		return Packet{}, err
	}
	return Decode(buf[:n])
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// serveRRQ implements the RRQ handler's numbered loop from spec.md §4.E.
func (s *Server) serveRRQ(dg *endpoint.Datagram, req Packet) {
	if req.Mode != ModeNetascii && req.Mode != ModeOctet {
		_, _ = dg.Write(NewError(ErrIllegalOperation, "unsupported mode").Encode())
		return
	}

	f, err := os.Open(req.Filename)
	if err != nil {
		_, _ = dg.Write(NewError(ErrFileNotFound, err.Error()).Encode())
		return
	}
	defer f.Close()

	var chunker *netasciiChunker
	if req.Mode == ModeNetascii {
		chunker = &netasciiChunker{r: f}
	}

	block := uint16(1)
	retries := 0
	lastLen := MaxDataLen

	for {
		var payload []byte
		var rerr error
		if chunker != nil {
			payload, rerr = chunker.next(MaxDataLen)
		} else {
			payload, rerr = readUpTo(f, MaxDataLen)
		}
		if rerr != nil {
			s.log.Entry(logger.WarnLevel, "tftp: rrq read error").ErrorAdd(rerr).Log()
			return
		}
		if len(payload) == 0 && lastLen < MaxDataLen {
			return
		}

		data := NewData(block, payload)
		if !s.sendAndAwaitAck(dg, data, block, &retries) {
			return
		}

		lastLen = len(payload)
		block++
		if lastLen < MaxDataLen {
			return
		}
	}
}

// sendAndAwaitAck sends data and waits for the matching ACK, retransmitting
// on timeout and silently ignoring stale/duplicate ACKs (the Sorcerer's
// Apprentice fix). It returns false if the transfer should abort.
func (s *Server) sendAndAwaitAck(dg *endpoint.Datagram, data Packet, block uint16, retries *int) bool {
	frame := data.Encode()
	for {
		if _, err := dg.Write(frame); err != nil {
			return false
		}

		ack, err := readDatagram(dg)
		if err != nil {
			if isTimeout(err) {
				*retries++
				if *retries > maxRetries {
					return false
				}
				continue
			}
			return false
		}

		if ack.Op != OpACK {
			return false
		}
		if ack.Block != block {
			// Duplicate/old ACK: do not retransmit, keep waiting.
			continue
		}
		*retries = 0
		return true
	}
}

// serveWRQ implements the WRQ handler's numbered loop from spec.md §4.E.
func (s *Server) serveWRQ(dg *endpoint.Datagram, req Packet) {
	if req.Mode != ModeNetascii && req.Mode != ModeOctet {
		_, _ = dg.Write(NewError(ErrIllegalOperation, "unsupported mode").Encode())
		return
	}
	if _, err := os.Stat(req.Filename); err == nil {
		_, _ = dg.Write(NewError(ErrFileAlreadyExists, "file already exists").Encode())
		return
	}

	f, err := os.Create(req.Filename)
	if err != nil {
		_, _ = dg.Write(NewError(ErrAccessViolation, err.Error()).Encode())
		return
	}
	defer f.Close()

	if _, err := dg.Write(NewAck(0).Encode()); err != nil {
		return
	}

	var decoder *NetasciiDecoder
	if req.Mode == ModeNetascii {
		decoder = &NetasciiDecoder{}
	}

	block := uint16(1)
	retries := 0

	for {
		pkt, err := readDatagram(dg)
		if err != nil {
			if isTimeout(err) {
				retries++
				if retries > maxRetries {
					return
				}
				if _, werr := dg.Write(NewAck(block - 1).Encode()); werr != nil {
					return
				}
				continue
			}
			return
		}

		if pkt.Op != OpDATA {
			return
		}

		if pkt.Block == block-1 {
			// Sender missed our ACK; resend it.
			if _, werr := dg.Write(NewAck(block - 1).Encode()); werr != nil {
				return
			}
			continue
		}
		if pkt.Block != block {
			return
		}

		payload := pkt.Data
		if decoder != nil {
			payload = decoder.Decode(payload)
		}
		if _, err := f.Write(payload); err != nil {
			return
		}
		if _, err := dg.Write(NewAck(block).Encode()); err != nil {
			return
		}

		retries = 0
		done := len(pkt.Data) < MaxDataLen
		block++
		if done {
			return
		}
	}
}
