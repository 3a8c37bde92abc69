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

	"github.com/gigamonster256/netkit/internal/atomicmap"
	"github.com/gigamonster256/netkit/internal/logger"
	"github.com/gigamonster256/netkit/pkg/sbcp"
)

// Broker is the chat system's single authoritative state owner: the only
// goroutine that ever mutates the username registry. All of its public API
// is channel-based so every mutation is serialized through its Run loop.
type Broker struct {
	maxClients int
	log        logger.Logger

	bootstrap  chan bootstrapMsg
	inbound    chan sessionMsg
	disconnect chan uuid.UUID

	// usernames mirrors the registry for lock-free diagnostic reads (e.g.
	// a future admin endpoint); every write still happens from Run alone.
	usernames *atomicmap.Map[string, uuid.UUID]

	byID  map[uuid.UUID]*sessionHandle
	order []string
}

// NewBroker builds a Broker bounded to maxClients concurrent usernames.
func NewBroker(maxClients int, log logger.Logger) *Broker {
	return &Broker{
		maxClients: maxClients,
		log:        log,
		bootstrap:  make(chan bootstrapMsg),
		inbound:    make(chan sessionMsg, 64),
		disconnect: make(chan uuid.UUID, 16),
		usernames:  &atomicmap.Map[string, uuid.UUID]{},
		byID:       make(map[uuid.UUID]*sessionHandle),
	}
}

// Run executes the broker's central loop until ctx is cancelled.
func (b *Broker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case bs := <-b.bootstrap:
			b.join(bs)
		case sm := <-b.inbound:
			b.route(sm)
		case id := <-b.disconnect:
			b.leave(id)
		}
	}
}

func (b *Broker) join(bs bootstrapMsg) {
	if _, exists := b.usernames.Load(bs.username); exists {
		nak, _ := sbcp.Nak("Username already exists")
		bs.fromBroker <- nak
		return
	}
	if len(b.order) >= b.maxClients {
		nak, _ := sbcp.Nak("Maximum clients limit")
		bs.fromBroker <- nak
		return
	}

	existing := make([]string, len(b.order))
	copy(existing, b.order)

	h := &sessionHandle{id: bs.id, username: bs.username, fromBroker: bs.fromBroker}
	b.byID[bs.id] = h
	b.usernames.Store(bs.username, bs.id)
	b.order = append(b.order, bs.username)

	ack, _ := sbcp.Ack(existing)
	bs.fromBroker <- ack

	online, _ := sbcp.Online(bs.username)
	b.broadcastExcept(bs.id, online)

	b.log.Entry(logger.InfoLevel, "session joined").FieldAdd("username", bs.username).Log()
}

func (b *Broker) route(sm sessionMsg) {
	h, ok := b.byID[sm.id]
	if !ok {
		return
	}
	switch sm.msg.Type {
	case sbcp.SEND:
		text, _ := sm.msg.Text()
		fwd, err := sbcp.Forward(h.username, text)
		if err != nil {
			return
		}
		b.broadcastExcept(sm.id, fwd)
	case sbcp.IDLE:
		idle, err := sbcp.Idle(h.username)
		if err != nil {
			return
		}
		b.broadcastExcept(sm.id, idle)
	}
}

func (b *Broker) leave(id uuid.UUID) {
	h, ok := b.byID[id]
	if !ok {
		return
	}
	delete(b.byID, id)
	b.usernames.Delete(h.username)
	for i, name := range b.order {
		if name == h.username {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}

	offline, _ := sbcp.Offline(h.username)
	b.broadcastExcept(id, offline)

	b.log.Entry(logger.InfoLevel, "session left").FieldAdd("username", h.username).Log()
}

func (b *Broker) broadcastExcept(except uuid.UUID, msg sbcp.Message) {
	for id, h := range b.byID {
		if id == except {
			continue
		}
		select {
		case h.fromBroker <- msg:
		default:
			// A session whose outbound channel is full is already being
			// torn down by its own Readn failure; dropping here avoids
			// blocking the whole broker on one stuck peer.
		}
	}
}
