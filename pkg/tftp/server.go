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
	"context"
	"net"

	"github.com/gigamonster256/netkit/internal/logger"
	"github.com/gigamonster256/netkit/pkg/endpoint"
	"github.com/gigamonster256/netkit/pkg/server"
)

// Server is the TFTP engine: a datagram connection server whose handler
// re-anchors each transfer onto its own ephemeral-port endpoint.Datagram,
// then drives the RRQ/WRQ state machine synchronously to completion.
type Server struct {
	udp server.UDPServer
	log logger.Logger
}

// NewServer builds a TFTP server bound to host:port. Transfers read and
// write files relative to the process's current working directory.
func NewServer(host string, port int, log logger.Logger) (*Server, error) {
	s := &Server{log: log}
	s.udp = server.NewUDP(log, s.handle)
	if err := s.udp.SetHost(host); err != nil {
		return nil, err
	}
	if err := s.udp.SetPort(port); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) handle(_ context.Context, _ *endpoint.PacketListener, peer net.Addr, first []byte, _ any) {
	req, err := Decode(first)
	if err != nil {
		s.log.Entry(logger.WarnLevel, "tftp: malformed initial packet").ErrorAdd(err).Log()
		return
	}

	dg, err := endpoint.DialDatagram(peer)
	if err != nil {
		s.log.Entry(logger.WarnLevel, "tftp: failed to open transfer endpoint").ErrorAdd(err).Log()
		return
	}
	defer dg.Close()

	switch req.Op {
	case OpRRQ:
		s.serveRRQ(dg, req)
	case OpWRQ:
		s.serveWRQ(dg, req)
	default:
		_, _ = dg.Write(NewError(ErrIllegalOperation, "expected RRQ or WRQ").Encode())
	}
}

// Exec starts the datagram server and blocks until ctx is cancelled.
func (s *Server) Exec(ctx context.Context) error { return s.udp.Exec(ctx) }

// Stop signals the underlying datagram server to stop.
func (s *Server) Stop(force bool) error { return s.udp.Stop(force) }
