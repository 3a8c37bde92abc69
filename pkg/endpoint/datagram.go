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
	"net"
	"net/netip"
	"time"

	"github.com/gigamonster256/netkit/internal/errs"
)

// PacketListener is the unconnected, multi-client side of a datagram
// endpoint: the socket a server binds to accept the first packet of any
// number of independent peers.
type PacketListener struct {
	pc net.PacketConn
}

// ListenDatagram binds an unconnected UDP socket on host:port.
func ListenDatagram(host, port string) (*PacketListener, error) {
	pc, err := net.ListenPacket("udp", AddrPort(host, port))
	if err != nil {
		return nil, errs.Wrap(errs.CodeFatal, err, "endpoint: listen datagram %s:%s", host, port)
	}
	return &PacketListener{pc: pc}, nil
}

// RecvFrom reads one datagram and the address it arrived from.
func (l *PacketListener) RecvFrom(buf []byte) (int, net.Addr, error) {
	n, addr, err := l.pc.ReadFrom(buf)
	if err != nil {
		return n, addr, errs.Wrap(errs.CodeFatal, err, "endpoint: recvfrom")
	}
	return n, addr, nil
}

// SendTo writes one datagram to the given address.
func (l *PacketListener) SendTo(buf []byte, peer net.Addr) (int, error) {
	n, err := l.pc.WriteTo(buf, peer)
	if err != nil {
		return n, errs.Wrap(errs.CodeTransient, err, "endpoint: sendto")
	}
	return n, nil
}

// SetReadDeadline forwards to the underlying PacketConn, used by the
// supervisor's accept-timeout poll.
func (l *PacketListener) SetReadDeadline(t time.Time) error {
	return l.pc.SetReadDeadline(t)
}

// LocalAddr returns the bound local address.
func (l *PacketListener) LocalAddr() net.Addr { return l.pc.LocalAddr() }

// Close closes the listening socket.
func (l *PacketListener) Close() error { return l.pc.Close() }

// Datagram is the connected, single-peer side of a datagram endpoint: a
// fresh ephemeral-port socket dedicated to one remote address, the
// realization of the "two-phase" capture-then-connect contract (the capture
// already happened on the PacketListener; Datagram is the "connect" phase,
// giving a transfer its own kernel-filtered port pair).
type Datagram struct {
	conn net.Conn
	peer netip.Addr
}

// DialDatagram opens a new ephemeral UDP socket connected to peer. The
// kernel then filters inbound traffic to that single remote address,
// which is what the spec calls "re-anchoring" the endpoint.
func DialDatagram(peer net.Addr) (*Datagram, error) {
	conn, err := net.Dial("udp", peer.String())
	if err != nil {
		return nil, errs.Wrap(errs.CodeFatal, err, "endpoint: dial datagram %s", peer.String())
	}
	addr := CanonicalPeer(peer)
	return &Datagram{conn: conn, peer: addr}, nil
}

// PeerIP returns the canonical peer address this Datagram is connected to.
func (d *Datagram) PeerIP() netip.Addr { return d.peer }

// Read performs a single passthrough read of one datagram.
func (d *Datagram) Read(buf []byte) (int, error) { return d.conn.Read(buf) }

// Write performs a single passthrough write of one datagram.
func (d *Datagram) Write(buf []byte) (int, error) { return d.conn.Write(buf) }

// SetReadDeadline forwards to the underlying connection, used to implement
// the 10-second TFTP block timeout.
func (d *Datagram) SetReadDeadline(t time.Time) error { return d.conn.SetReadDeadline(t) }

// Close closes the connected socket.
func (d *Datagram) Close() error { return d.conn.Close() }
