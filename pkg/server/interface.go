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
	"time"

	"github.com/gigamonster256/netkit/pkg/endpoint"
)

// StreamHandler processes one accepted TCP session. It owns ep exclusively
// and must not return until the session is finished; the worker goroutine
// closes ep afterward.
type StreamHandler func(ctx context.Context, ep *endpoint.Stream, handlerCtx any)

// DatagramHandler processes one UDP session anchored to peer, starting from
// the first packet's bytes. It receives the shared listener only to send
// replies on the well-known port if it chooses to; transfers that need a
// dedicated port pair (TFTP) dial their own endpoint.Datagram.
type DatagramHandler func(ctx context.Context, listener *endpoint.PacketListener, peer net.Addr, first []byte, handlerCtx any)

// TimeoutHook is invoked every time the supervisor's accept-timeout elapses
// with no new session, before the timeout counter is incremented.
type TimeoutHook func()

// Server is the lifecycle and fluent-configuration contract shared by the
// stream and datagram connection servers.
type Server interface {
	// SetHost sets the bind address (defaults to any-address, IPv6).
	SetHost(host string) error
	// SetPort sets the bind port.
	SetPort(port int) error
	// SetBacklog records a listen backlog, validated at Start. It is not
	// passed to the socket: the stream listener uses the OS default backlog.
	SetBacklog(n int) error
	// SetAcceptTimeout sets the accept/recvfrom poll deadline; 0 means infinite.
	SetAcceptTimeout(d time.Duration) error
	// SetMaxTimeouts sets how many consecutive timeouts stop the supervisor; 0 means unlimited.
	SetMaxTimeouts(n int) error
	// SetMaxClients sets the concurrent-session bound; beyond it, new sessions are dropped.
	SetMaxClients(n int) error
	// SetDispatch selects how the next handler is chosen from the configured list.
	SetDispatch(mode DispatchMode) error
	// SetHandlerContext sets the opaque value passed to every handler invocation.
	SetHandlerContext(handlerCtx any) error
	// SetTimeoutHook registers the optional accept-timeout callback.
	SetTimeoutHook(hook TimeoutHook) error

	// Start spawns the supervisor and returns immediately.
	Start(ctx context.Context) error
	// Exec spawns the supervisor and blocks until it exits.
	Exec(ctx context.Context) error
	// Stop signals the supervisor to terminate; force skips the graceful drain.
	Stop(force bool) error

	// State returns the current lifecycle stage.
	State() State
	// IsRunning reports whether State is StateRunning.
	IsRunning() bool
	// Done closes once the supervisor has exited.
	Done() <-chan struct{}
	// OpenConnections returns the current live-worker count.
	OpenConnections() int64
}
