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

// Package chat implements the SBCP chat broker: a central state owner and a
// per-connection session worker that multiplex over the sbcp wire codec.
package chat

import (
	"github.com/google/uuid"

	"github.com/gigamonster256/netkit/pkg/sbcp"
)

// sessionMsg tags an inbound SEND/IDLE with the session that sent it, the
// fan-in shape that lets the broker's single goroutine select over an
// unbounded number of sessions without reflect.Select.
type sessionMsg struct {
	id  uuid.UUID
	msg sbcp.Message
}

// bootstrapMsg is what a Session hands the broker the moment it has read its
// client's JOIN, per spec.md §4.D's "bootstrap record {session_id, username}".
type bootstrapMsg struct {
	id         uuid.UUID
	username   string
	fromBroker chan<- sbcp.Message
}

// sessionHandle is the broker's record of one installed session.
type sessionHandle struct {
	id         uuid.UUID
	username   string
	fromBroker chan<- sbcp.Message
}
