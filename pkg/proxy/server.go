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
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gigamonster256/netkit/internal/logger"
	"github.com/gigamonster256/netkit/pkg/server"
)

// Server is the caching proxy's connection server: a single shared Cache
// and Handler behind an ordinary TCP server. The goroutine-per-connection
// realization of spec.md §4.G's "thread-per-connection" requirement shares
// the cache automatically, since goroutines already share an address space.
type Server struct {
	tcp   server.TCPServer
	cache *Cache
	log   logger.Logger

	sigCh chan os.Signal
	done  chan struct{}
}

// NewServer wires a Handler over a fresh Cache and binds it to host:port.
func NewServer(host string, port, upstreamPort int, log logger.Logger) (*Server, error) {
	cache := NewCache()
	h := NewHandler(cache, log, upstreamPort)

	s := &Server{cache: cache, log: log, sigCh: make(chan os.Signal, 1), done: make(chan struct{})}
	s.tcp = server.NewTCP(log, h.Handle)
	if err := s.tcp.SetHost(host); err != nil {
		return nil, err
	}
	if err := s.tcp.SetPort(port); err != nil {
		return nil, err
	}
	return s, nil
}

// Exec starts the SIGUSR1 diagnostic watcher and blocks on the TCP server
// until ctx is cancelled.
func (s *Server) Exec(ctx context.Context) error {
	signal.Notify(s.sigCh, syscall.SIGUSR1)
	go s.watchDiagnosticSignal(ctx)
	defer func() {
		signal.Stop(s.sigCh)
		close(s.done)
	}()
	return s.tcp.Exec(ctx)
}

// watchDiagnosticSignal implements spec.md §4.G's SIGUSR1 cache summary: a
// best-effort read with no mutex held, per the spec's explicit note.
func (s *Server) watchDiagnosticSignal(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.sigCh:
			s.log.Entry(logger.InfoLevel, "proxy: cache summary").
				FieldAdd("entries", s.cache.Summary()).Log()
		}
	}
}

// Stop signals the underlying TCP server to stop.
func (s *Server) Stop(force bool) error { return s.tcp.Stop(force) }
