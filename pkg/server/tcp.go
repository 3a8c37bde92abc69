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

package server

import (
	"context"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gigamonster256/netkit/internal/errs"
	"github.com/gigamonster256/netkit/internal/logger"
	"github.com/gigamonster256/netkit/pkg/endpoint"
)

// TCPServer is the stream-flavour connection server: it accepts TCP
// sessions and dispatches each to a StreamHandler.
type TCPServer interface {
	Server
	// SetHandlers replaces the handler list consulted on each dispatch.
	SetHandlers(handlers ...StreamHandler) error
	// SetWorkerThreads toggles the documented stream-only "worker threads
	// instead of per-connection processes" knob. netkit always realizes
	// concurrency with goroutines (see DESIGN.md), so this setter only
	// validates and records the preference; it never changes behavior.
	SetWorkerThreads(bool) error
}

type tcpServer struct {
	mu sync.Mutex
	cfg config

	handlers      []StreamHandler
	timeoutHook   TimeoutHook
	workerThreads bool

	log logger.Logger

	state     atomic.Int32
	ln        net.Listener
	cancel    context.CancelFunc
	grp       *errgroup.Group
	doneCh    chan struct{}
	openConns atomic.Int64
	cursor    atomic.Uint64
}

// NewTCP builds an unstarted stream connection server with default
// configuration (any-address, IPv6, backlog 128, max 256 concurrent
// clients, round-robin dispatch).
func NewTCP(log logger.Logger, handlers ...StreamHandler) TCPServer {
	return &tcpServer{
		cfg:      defaultConfig(),
		handlers: handlers,
		log:      log,
	}
}

func (s *tcpServer) locked(f func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if State(s.state.Load()) == StateRunning {
		return ErrRunning
	}
	return f()
}

func (s *tcpServer) SetHost(host string) error {
	return s.locked(func() error { s.cfg.host = host; return nil })
}

func (s *tcpServer) SetPort(port int) error {
	return s.locked(func() error { s.cfg.port = port; return nil })
}

func (s *tcpServer) SetBacklog(n int) error {
	return s.locked(func() error { s.cfg.backlog = n; return nil })
}

func (s *tcpServer) SetAcceptTimeout(d time.Duration) error {
	return s.locked(func() error { s.cfg.acceptTimeout = d; return nil })
}

func (s *tcpServer) SetMaxTimeouts(n int) error {
	return s.locked(func() error { s.cfg.maxTimeouts = n; return nil })
}

func (s *tcpServer) SetMaxClients(n int) error {
	return s.locked(func() error { s.cfg.maxClients = n; return nil })
}

func (s *tcpServer) SetDispatch(mode DispatchMode) error {
	return s.locked(func() error { s.cfg.dispatch = mode; return nil })
}

func (s *tcpServer) SetHandlerContext(ctx any) error {
	return s.locked(func() error { s.cfg.handlerCtx = ctx; return nil })
}

func (s *tcpServer) SetTimeoutHook(hook TimeoutHook) error {
	return s.locked(func() error { s.timeoutHook = hook; return nil })
}

func (s *tcpServer) SetHandlers(handlers ...StreamHandler) error {
	return s.locked(func() error { s.handlers = handlers; return nil })
}

func (s *tcpServer) SetWorkerThreads(b bool) error {
	return s.locked(func() error { s.workerThreads = b; return nil })
}

func (s *tcpServer) State() State   { return State(s.state.Load()) }
func (s *tcpServer) IsRunning() bool { return s.State() == StateRunning }
func (s *tcpServer) OpenConnections() int64 { return s.openConns.Load() }

func (s *tcpServer) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doneCh == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.doneCh
}

func (s *tcpServer) nextHandler() StreamHandler {
	n := len(s.handlers)
	if n == 0 {
		return nil
	}
	if s.cfg.dispatch == Random {
		return s.handlers[randIndex(n)]
	}
	i := s.cursor.Add(1) - 1
	return s.handlers[int(i%uint64(n))]
}

// Start validates the configuration, binds the listener, and spawns the
// supervisor goroutine; it returns as soon as the listener is ready.
func (s *tcpServer) Start(ctx context.Context) error {
	s.mu.Lock()
	if State(s.state.Load()) == StateRunning {
		s.mu.Unlock()
		return ErrRunning
	}
	if len(s.handlers) == 0 {
		s.mu.Unlock()
		return ErrNoHandlers
	}
	if err := s.cfg.validate(); err != nil {
		s.mu.Unlock()
		return err
	}

	ln, err := net.Listen("tcp", endpoint.AddrPort(s.cfg.host, strconv.Itoa(s.cfg.port)))
	if err != nil {
		s.mu.Unlock()
		return errs.Wrap(errs.CodeFatal, err, "server: listen %s:%d", s.cfg.host, s.cfg.port)
	}
	s.ln = ln

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.doneCh = make(chan struct{})
	s.state.Store(int32(StateRunning))
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(runCtx)
	s.grp = g
	g.Go(func() error { return s.supervise(gctx) })
	go func() {
		<-gctx.Done()
		_ = ln.Close()
	}()

	go func() {
		_ = g.Wait()
		s.state.Store(int32(StateStopped))
		close(s.doneCh)
	}()

	s.log.Entry(logger.InfoLevel, "tcp server listening").FieldAdd("addr", ln.Addr().String()).Log()
	return nil
}

// Exec is Start followed by a blocking wait for the supervisor and every
// worker it spawned to finish.
func (s *tcpServer) Exec(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-s.Done()
	return nil
}

// Stop signals the supervisor to stop accepting new connections. A
// graceful stop waits for in-flight workers to finish; a forced stop
// returns immediately with no join guarantee.
func (s *tcpServer) Stop(force bool) error {
	s.mu.Lock()
	if State(s.state.Load()) != StateRunning {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	ln := s.ln
	grp := s.grp
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if ln != nil {
		_ = ln.Close()
	}
	if !force && grp != nil {
		_ = grp.Wait()
	}
	return nil
}

func (s *tcpServer) supervise(ctx context.Context) error {
	timeouts := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if s.cfg.acceptTimeout > 0 {
			if tl, ok := s.ln.(*net.TCPListener); ok {
				_ = tl.SetDeadline(time.Now().Add(s.cfg.acceptTimeout))
			}
		}

		conn, err := s.ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				if s.timeoutHook != nil {
					s.timeoutHook()
				}
				timeouts++
				if s.cfg.maxTimeouts > 0 && timeouts >= s.cfg.maxTimeouts {
					return nil
				}
				continue
			}
			// Listener closed (graceful/forced stop) or a fatal accept
			// error: either way the supervisor loop is done.
			return nil
		}
		timeouts = 0

		if s.cfg.maxClients > 0 && s.openConns.Load() >= int64(s.cfg.maxClients) {
			s.log.Entry(logger.WarnLevel, "dropping connection: at capacity").
				FieldAdd("max_clients", s.cfg.maxClients).Log()
			_ = conn.Close()
			continue
		}

		handler := s.nextHandler()
		s.openConns.Add(1)
		ep := endpoint.NewStream(conn)
		hctx := s.cfg.handlerCtx
		workerCtx := ctx
		s.grp.Go(func() error {
			defer s.openConns.Add(-1)
			defer conn.Close()
			handler(workerCtx, ep, hctx)
			return nil
		})
	}
}
