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

	"github.com/google/uuid"

	"github.com/gigamonster256/netkit/internal/errs"
	"github.com/gigamonster256/netkit/internal/logger"
	"github.com/gigamonster256/netkit/pkg/endpoint"
	"github.com/gigamonster256/netkit/pkg/sbcp"
)

// Session is the per-connection worker spawned for one accepted TCP stream.
// It is the only entity that touches its own endpoint; the broker only ever
// sees it through channels.
type Session struct {
	id         uuid.UUID
	ep         *endpoint.Stream
	fromBroker chan sbcp.Message
	log        logger.Logger
}

// NewSession wraps an accepted stream as a chat session worker.
func NewSession(ep *endpoint.Stream, log logger.Logger) *Session {
	return &Session{
		id:         uuid.New(),
		ep:         ep,
		fromBroker: make(chan sbcp.Message, 32),
		log:        log,
	}
}

// Run blocks until the client disconnects, the broker rejects the join, or
// ctx is cancelled. It always leaves the endpoint closed to the caller's
// discretion (the caller, server.StreamHandler's worker goroutine, closes it).
func (s *Session) Run(ctx context.Context, b *Broker) error {
	frame, err := sbcp.ReadFrame(s.ep.Readn)
	if err != nil {
		return err
	}
	msg, err := sbcp.Decode(frame)
	if err != nil {
		return err
	}
	if msg.Type != sbcp.JOIN {
		return errs.New(errs.CodeProtocol, "chat: expected JOIN, got %s", msg.Type)
	}
	username, _ := msg.Username()

	select {
	case b.bootstrap <- bootstrapMsg{id: s.id, username: username, fromBroker: s.fromBroker}:
	case <-ctx.Done():
		return ctx.Err()
	}

	var first sbcp.Message
	select {
	case first = <-s.fromBroker:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := s.write(first); err != nil {
		return err
	}
	if first.Type == sbcp.NAK {
		return nil
	}

	incoming := make(chan sbcp.Message)
	readErr := make(chan error, 1)
	go s.pumpReads(incoming, readErr)

	for {
		select {
		case <-ctx.Done():
			b.disconnect <- s.id
			return ctx.Err()

		case m := <-incoming:
			switch m.Type {
			case sbcp.SEND, sbcp.IDLE:
				b.inbound <- sessionMsg{id: s.id, msg: m}
			default:
				b.disconnect <- s.id
				return errs.New(errs.CodeProtocol, "chat: unexpected message type %s from client", m.Type)
			}

		case m := <-s.fromBroker:
			if err := s.write(m); err != nil {
				b.disconnect <- s.id
				return err
			}

		case err := <-readErr:
			b.disconnect <- s.id
			return err
		}
	}
}

func (s *Session) pumpReads(incoming chan<- sbcp.Message, errc chan<- error) {
	for {
		frame, err := sbcp.ReadFrame(s.ep.Readn)
		if err != nil {
			errc <- err
			return
		}
		m, err := sbcp.Decode(frame)
		if err != nil {
			errc <- err
			return
		}
		incoming <- m
	}
}

func (s *Session) write(m sbcp.Message) error {
	frame, err := m.Encode()
	if err != nil {
		return err
	}
	return s.ep.Writen(frame)
}
