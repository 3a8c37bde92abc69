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

package chat

import (
	"context"

	"github.com/gigamonster256/netkit/internal/logger"
	"github.com/gigamonster256/netkit/pkg/endpoint"
	"github.com/gigamonster256/netkit/pkg/server"
)

// Server wires a stream connection server to a single Broker instance: one
// handler invocation per accepted TCP session, each spawning a Session that
// talks to the shared Broker over channels.
type Server struct {
	tcp    server.TCPServer
	broker *Broker
	log    logger.Logger
}

// NewServer builds a chat Server listening on host:port with up to
// maxClients concurrently joined usernames.
func NewServer(host string, port, maxClients int, log logger.Logger) (*Server, error) {
	s := &Server{
		broker: NewBroker(maxClients, log),
		log:    log,
	}
	s.tcp = server.NewTCP(log, s.handle)
	if err := s.tcp.SetHost(host); err != nil {
		return nil, err
	}
	if err := s.tcp.SetPort(port); err != nil {
		return nil, err
	}
	if err := s.tcp.SetMaxClients(maxClients); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) handle(ctx context.Context, ep *endpoint.Stream, _ any) {
	sess := NewSession(ep, s.log)
	if err := sess.Run(ctx, s.broker); err != nil {
		s.log.Entry(logger.DebugLevel, "chat session ended").
			FieldAdd("peer", ep.PeerIP().String()).ErrorAdd(err).Log()
	}
}

// Exec starts the broker's central loop and the TCP server, blocking until
// ctx is cancelled and every in-flight session has drained.
func (s *Server) Exec(ctx context.Context) error {
	go s.broker.Run(ctx)
	return s.tcp.Exec(ctx)
}

// Stop signals the underlying TCP server to stop, per server.Server.Stop.
func (s *Server) Stop(force bool) error { return s.tcp.Stop(force) }
