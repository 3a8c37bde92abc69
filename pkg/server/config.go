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

// Package server is the reusable connection-server core: bind, accept (or
// recvfrom) with an optional timeout hook, dispatch each session to a
// handler under a bounded worker pool, and support graceful or forced
// shutdown. Both a stream (TCP) and a datagram (UDP) flavour share this
// config and lifecycle contract.
package server

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gigamonster256/netkit/internal/errs"
)

// DispatchMode selects how the supervisor picks a handler out of its
// configured list for each new session.
type DispatchMode int

const (
	// RoundRobin advances a cursor over the handler list on every dispatch.
	RoundRobin DispatchMode = iota
	// Random draws a handler uniformly at random for every dispatch.
	Random
)

// State is the server's lifecycle stage.
type State int32

const (
	StateUnstarted State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unstarted"
	}
}

// config holds the mutable, validated knobs shared by the stream and
// datagram server flavours. Every field has a fluent Set* method on the
// owning Server that rejects the change once the server is Running.
type config struct {
	host string
	port int

	backlog       int
	acceptTimeout time.Duration
	maxTimeouts   int
	maxClients    int

	dispatch   DispatchMode
	handlerCtx any

	// packetBufferSize is datagram-only: the size of the buffer the
	// supervisor reads the first datagram of a session into.
	packetBufferSize int
}

type validatable struct {
	Host             string        `validate:"omitempty,hostname_rfc1123|ip"`
	Port             int           `validate:"gte=0,lte=65535"`
	Backlog          int           `validate:"gte=0"`
	AcceptTimeout    time.Duration `validate:"gte=0"`
	MaxTimeouts      int           `validate:"gte=0"`
	MaxClients       int           `validate:"gte=0"`
	PacketBufferSize int           `validate:"gte=0"`
}

var validate = validator.New()

func defaultConfig() config {
	return config{
		host:             "",
		backlog:          128,
		maxClients:       256,
		dispatch:         RoundRobin,
		packetBufferSize: 65507,
	}
}

// validate runs struct-tag validation over the numeric/textual knobs,
// mirroring the teacher's use of go-playground/validator in
// httpserver.ServerConfig.Validate.
func (c config) validate() error {
	v := validatable{
		Host:             c.host,
		Port:             c.port,
		Backlog:          c.backlog,
		AcceptTimeout:    c.acceptTimeout,
		MaxTimeouts:      c.maxTimeouts,
		MaxClients:       c.maxClients,
		PacketBufferSize: c.packetBufferSize,
	}
	if err := validate.Struct(v); err != nil {
		return errs.Wrap(errs.CodeConfig, err, "server: invalid configuration")
	}
	return nil
}

var (
	// ErrRunning is returned by every fluent setter once the server has started.
	ErrRunning = errs.New(errs.CodeConfig, "server: already running")
	// ErrNoHandlers is returned by Start when no handler has been registered.
	ErrNoHandlers = errs.New(errs.CodeConfig, "server: no handlers registered")
)
