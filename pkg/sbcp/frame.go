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

import (
	"encoding/binary"

	"github.com/gigamonster256/netkit/internal/errs"
)

// Message is a decoded SBCP frame: a message type plus its attributes.
type Message struct {
	Type       Type
	Attributes []Attribute
}

// New builds a Message and validates it against the per-type attribute
// rules from spec.md §4.C before returning it.
func New(t Type, attrs ...Attribute) (Message, error) {
	m := Message{Type: t, Attributes: attrs}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// payloadSize returns the sum of the attributes' on-wire sizes.
func (m Message) payloadSize() int {
	n := 0
	for _, a := range m.Attributes {
		n += a.Size()
	}
	return n
}

// packHeader packs version:9|type:7 little-endian-first into the first two
// bytes and length:16 big-endian into the trailing two bytes, per spec.md §6.
func packHeader(t Type, length int) [HeaderSize]byte {
	packed := uint16(Version&0x1FF) | uint16(t&0x7F)<<9
	var hdr [HeaderSize]byte
	hdr[0] = byte(packed)
	hdr[1] = byte(packed >> 8)
	binary.BigEndian.PutUint16(hdr[2:4], uint16(length))
	return hdr
}

func unpackHeader(hdr []byte) (version uint16, t Type, length int) {
	packed := uint16(hdr[0]) | uint16(hdr[1])<<8
	version = packed & 0x1FF
	t = Type((packed >> 9) & 0x7F)
	length = int(binary.BigEndian.Uint16(hdr[2:4]))
	return
}

// Encode serializes the message to its on-wire byte representation.
func (m Message) Encode() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	size := m.payloadSize()
	if size > MaxPayload {
		return nil, ErrPayloadTooLarge
	}

	hdr := packHeader(m.Type, size)
	buf := make([]byte, 0, HeaderSize+size)
	buf = append(buf, hdr[:]...)
	for _, a := range m.Attributes {
		buf = encodeAttribute(buf, a)
	}
	return buf, nil
}

// Decode parses a complete on-wire frame (header + payload) into a Message,
// validating the header version, the declared length against the actual
// attribute bytes present, and the per-type attribute rules.
func Decode(frame []byte) (Message, error) {
	if len(frame) < HeaderSize {
		return Message{}, errs.Wrap(errs.CodeProtocol, ErrLengthMismatch, "sbcp: frame shorter than header")
	}
	version, t, length := unpackHeader(frame[:HeaderSize])
	if version != Version {
		return Message{}, ErrInvalidVersion
	}
	if length > MaxPayload {
		return Message{}, ErrPayloadTooLarge
	}

	payload := frame[HeaderSize:]
	if len(payload) != length {
		return Message{}, ErrLengthMismatch
	}

	it := NewAttributeIterator(payload)
	var attrs []Attribute
	for {
		a, ok := it.Next()
		if !ok {
			break
		}
		// Copy out of the shared payload slice so the returned Message
		// owns its attribute values independently of the input buffer.
		v := make([]byte, len(a.Value))
		copy(v, a.Value)
		attrs = append(attrs, Attribute{Type: a.Type, Value: v})
	}
	if it.Err() != nil {
		return Message{}, it.Err()
	}

	m := Message{Type: t, Attributes: attrs}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// ReadFrame reads exactly one frame through readn: a 4-byte header followed by its
// declared-length payload.
func ReadFrame(readn func([]byte) error) ([]byte, error) {
	hdr := make([]byte, HeaderSize)
	if err := readn(hdr); err != nil {
		return nil, err
	}
	_, _, length := unpackHeader(hdr)
	if length > MaxPayload {
		return nil, ErrPayloadTooLarge
	}
	frame := make([]byte, HeaderSize+length)
	copy(frame, hdr)
	if length > 0 {
		if err := readn(frame[HeaderSize:]); err != nil {
			return nil, err
		}
	}
	return frame, nil
}
