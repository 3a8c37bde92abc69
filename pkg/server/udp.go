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
	"errors"
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

// UDPServer is the datagram-flavour connection server: it reads the first
// packet of each session off a shared listening socket and dispatches it
// to a DatagramHandler, which is free to re-anchor the session onto its
// own dedicated endpoint.Datagram (as TFTP transfers do).
type UDPServer interface {
	Server
	// SetHandlers replaces the handler list consulted on each dispatch.
	SetHandlers(handlers ...DatagramHandler) error
	// SetPacketBufferSize sets the buffer the supervisor reads the first
	// datagram of a session into (default 65507, the max UDP payload).
	SetPacketBufferSize(n int) error
}

type udpServer struct {
	mu  sync.Mutex
	cfg config

	handlers    []DatagramHandler
	timeoutHook TimeoutHook

	log logger.Logger

	state     atomic.Int32
	pc        *endpoint.PacketListener
	cancel    context.CancelFunc
	grp       *errgroup.Group
	doneCh    chan struct{}
	openConns atomic.Int64
	cursor    atomic.Uint64
}

// NewUDP builds an unstarted datagram connection server with default
// configuration.
func NewUDP(log logger.Logger, handlers ...DatagramHandler) UDPServer {
	return &udpServer{
		cfg:      defaultConfig(),
		handlers: handlers,
		log:      log,
	}
}

func (s *udpServer) locked(f func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if State(s.state.Load()) == StateRunning {
		return ErrRunning
	}
	return f()
}

func (s *udpServer) SetHost(host string) error {
	return s.locked(func() error { s.cfg.host = host; return nil })
}

func (s *udpServer) SetPort(port int) error {
	return s.locked(func() error { s.cfg.port = port; return nil })
}

func (s *udpServer) SetBacklog(n int) error {
	// Datagram sockets have no listen backlog; accepted for interface
	// parity with Server and validated like any other knob.
	return s.locked(func() error { s.cfg.backlog = n; return nil })
}

func (s *udpServer) SetAcceptTimeout(d time.Duration) error {
	return s.locked(func() error { s.cfg.acceptTimeout = d; return nil })
}

func (s *udpServer) SetMaxTimeouts(n int) error {
	return s.locked(func() error { s.cfg.maxTimeouts = n; return nil })
}

func (s *udpServer) SetMaxClients(n int) error {
	return s.locked(func() error { s.cfg.maxClients = n; return nil })
}

func (s *udpServer) SetDispatch(mode DispatchMode) error {
	return s.locked(func() error { s.cfg.dispatch = mode; return nil })
}

func (s *udpServer) SetHandlerContext(ctx any) error {
	return s.locked(func() error { s.cfg.handlerCtx = ctx; return nil })
}

func (s *udpServer) SetTimeoutHook(hook TimeoutHook) error {
	return s.locked(func() error { s.timeoutHook = hook; return nil })
}

func (s *udpServer) SetHandlers(handlers ...DatagramHandler) error {
	return s.locked(func() error { s.handlers = handlers; return nil })
}

func (s *udpServer) SetPacketBufferSize(n int) error {
	return s.locked(func() error { s.cfg.packetBufferSize = n; return nil })
}

func (s *udpServer) State() State           { return State(s.state.Load()) }
func (s *udpServer) IsRunning() bool        { return s.State() == StateRunning }
func (s *udpServer) OpenConnections() int64 { return s.openConns.Load() }

func (s *udpServer) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doneCh == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.doneCh
}

func (s *udpServer) nextHandler() DatagramHandler {
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

func (s *udpServer) Start(ctx context.Context) error {
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

	pc, err := endpoint.ListenDatagram(s.cfg.host, strconv.Itoa(s.cfg.port))
	if err != nil {
		s.mu.Unlock()
		return errs.Wrap(errs.CodeFatal, err, "server: listen datagram %s:%d", s.cfg.host, s.cfg.port)
	}
	s.pc = pc

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
		_ = pc.Close()
	}()

	go func() {
		_ = g.Wait()
		s.state.Store(int32(StateStopped))
		close(s.doneCh)
	}()

	s.log.Entry(logger.InfoLevel, "udp server listening").FieldAdd("addr", pc.LocalAddr().String()).Log()
	return nil
}

func (s *udpServer) Exec(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-s.Done()
	return nil
}

func (s *udpServer) Stop(force bool) error {
	s.mu.Lock()
	if State(s.state.Load()) != StateRunning {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	pc := s.pc
	grp := s.grp
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if pc != nil {
		_ = pc.Close()
	}
	if !force && grp != nil {
		_ = grp.Wait()
	}
	return nil
}

func (s *udpServer) supervise(ctx context.Context) error {
	timeouts := 0
	bufSize := s.cfg.packetBufferSize
	if bufSize <= 0 {
		bufSize = 65507
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if s.cfg.acceptTimeout > 0 {
			_ = s.pc.SetReadDeadline(time.Now().Add(s.cfg.acceptTimeout))
		}

		buf := make([]byte, bufSize)
		n, peer, err := s.pc.RecvFrom(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				if s.timeoutHook != nil {
					s.timeoutHook()
				}
				timeouts++
				if s.cfg.maxTimeouts > 0 && timeouts >= s.cfg.maxTimeouts {
					return nil
				}
				continue
			}
			return nil
		}
		timeouts = 0

		if s.cfg.maxClients > 0 && s.openConns.Load() >= int64(s.cfg.maxClients) {
			s.log.Entry(logger.WarnLevel, "dropping datagram: at capacity").
				FieldAdd("max_clients", s.cfg.maxClients).Log()
			continue
		}

		handler := s.nextHandler()
		first := buf[:n]
		hctx := s.cfg.handlerCtx
		listener := s.pc
		workerCtx := ctx
		s.openConns.Add(1)
		s.grp.Go(func() error {
			defer s.openConns.Add(-1)
			handler(workerCtx, listener, peer, first, hctx)
			return nil
		})
	}
}
