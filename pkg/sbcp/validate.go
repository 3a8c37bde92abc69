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

package sbcp

import "github.com/gigamonster256/netkit/internal/errs"

// Validate enforces the per-message-type attribute rules from spec.md §4.C's
// validation table, run on both encode and decode.
func (m Message) Validate() error {
	if m.payloadSize() > MaxPayload {
		return ErrPayloadTooLarge
	}

	switch m.Type {
	case JOIN:
		return requireExactly(m, USERNAME, 1, 20)
	case SEND:
		return requireExactly(m, MESSAGE, 1, 516)
	case FWD:
		return requireFWD(m)
	case IDLE:
		return requireAtMost(m, USERNAME, 1, 20)
	case ACK:
		return requireACK(m)
	case NAK:
		return requireExactly(m, REASON, 1, 36)
	case ONLINE, OFFLINE:
		return requireExactly(m, USERNAME, 1, 20)
	default:
		return ErrUnknownType
	}
}

func requireExactly(m Message, want AttrType, count, bound int) error {
	if len(m.Attributes) != count {
		return errs.Wrap(errs.CodeProtocol, ErrValidation, "sbcp: %s requires exactly %d %s attribute(s)", m.Type, count, want)
	}
	for _, a := range m.Attributes {
		if a.Type != want {
			return errs.Wrap(errs.CodeProtocol, ErrValidation, "sbcp: %s has illegal attribute %s", m.Type, a.Type)
		}
	}
	if m.payloadSize() > bound {
		return errs.Wrap(errs.CodeProtocol, ErrValidation, "sbcp: %s payload exceeds %d bytes", m.Type, bound)
	}
	return nil
}

func requireAtMost(m Message, want AttrType, maxCount, bound int) error {
	if len(m.Attributes) > maxCount {
		return errs.Wrap(errs.CodeProtocol, ErrValidation, "sbcp: %s allows at most %d %s attribute(s)", m.Type, maxCount, want)
	}
	for _, a := range m.Attributes {
		if a.Type != want {
			return errs.Wrap(errs.CodeProtocol, ErrValidation, "sbcp: %s has illegal attribute %s", m.Type, a.Type)
		}
	}
	if m.payloadSize() > bound {
		return errs.Wrap(errs.CodeProtocol, ErrValidation, "sbcp: %s payload exceeds %d bytes", m.Type, bound)
	}
	return nil
}

func requireFWD(m Message) error {
	var username, message int
	for _, a := range m.Attributes {
		switch a.Type {
		case USERNAME:
			username++
		case MESSAGE:
			message++
		default:
			return errs.Wrap(errs.CodeProtocol, ErrValidation, "sbcp: FWD has illegal attribute %s", a.Type)
		}
	}
	if username != 1 || message != 1 {
		return errs.Wrap(errs.CodeProtocol, ErrValidation, "sbcp: FWD requires exactly one USERNAME and one MESSAGE")
	}
	if m.payloadSize() > 536 {
		return errs.Wrap(errs.CodeProtocol, ErrValidation, "sbcp: FWD payload exceeds 536 bytes")
	}
	return nil
}

func requireACK(m Message) error {
	if len(m.Attributes) < 1 || m.Attributes[0].Type != CLIENT_COUNT {
		return errs.Wrap(errs.CodeProtocol, ErrValidation, "sbcp: ACK must start with one CLIENT_COUNT attribute")
	}
	for _, a := range m.Attributes[1:] {
		if a.Type != USERNAME {
			return errs.Wrap(errs.CodeProtocol, ErrValidation, "sbcp: ACK usernames must follow CLIENT_COUNT, got %s", a.Type)
		}
	}
	if m.payloadSize() > MaxPayload {
		return errs.Wrap(errs.CodeProtocol, ErrValidation, "sbcp: ACK payload exceeds %d bytes", MaxPayload)
	}
	return nil
}

// Username returns the value of the message's sole USERNAME attribute, for
// message types that carry exactly one (JOIN, ONLINE, OFFLINE, optionally
// IDLE).
func (m Message) Username() (string, bool) {
	for _, a := range m.Attributes {
		if a.Type == USERNAME {
			return a.String(), true
		}
	}
	return "", false
}

// Reason returns the value of the message's sole REASON attribute (NAK).
func (m Message) Reason() (string, bool) {
	for _, a := range m.Attributes {
		if a.Type == REASON {
			return a.String(), true
		}
	}
	return "", false
}

// Text returns the value of the message's sole MESSAGE attribute (SEND, FWD).
func (m Message) Text() (string, bool) {
	for _, a := range m.Attributes {
		if a.Type == MESSAGE {
			return a.String(), true
		}
	}
	return "", false
}
