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

// attrHeaderSize is the fixed type:16|length:16 prefix of every attribute.
const attrHeaderSize = 4

// Attribute is a single TLV: a typed, length-bounded value.
type Attribute struct {
	Type  AttrType
	Value []byte
}

// Size returns the attribute's total on-wire size (header + value).
func (a Attribute) Size() int { return attrHeaderSize + len(a.Value) }

func maxValueLen(t AttrType) (int, bool) {
	switch t {
	case USERNAME:
		return MaxUsername, true
	case MESSAGE:
		return MaxMessage, true
	case REASON:
		return MaxReason, true
	case CLIENT_COUNT:
		return ClientCountSize, true
	default:
		return 0, false
	}
}

// NewAttribute builds an Attribute, clamping an oversized value to its
// type's maximum and refusing unknown types, per spec.md §4.C's
// "constructors clamp input... and refuse unknown types".
func NewAttribute(t AttrType, value []byte) (Attribute, error) {
	max, ok := maxValueLen(t)
	if !ok {
		return Attribute{}, ErrUnknownType
	}
	if t == CLIENT_COUNT && len(value) != ClientCountSize {
		return Attribute{}, errs.Wrap(errs.CodeProtocol, ErrAttributeTooLarge, "sbcp: CLIENT_COUNT must be exactly %d bytes", ClientCountSize)
	}
	if len(value) > max {
		value = value[:max]
	}
	v := make([]byte, len(value))
	copy(v, value)
	return Attribute{Type: t, Value: v}, nil
}

// NewClientCount builds a CLIENT_COUNT attribute from an unsigned count.
func NewClientCount(n uint16) Attribute {
	v := make([]byte, ClientCountSize)
	binary.BigEndian.PutUint16(v, n)
	return Attribute{Type: CLIENT_COUNT, Value: v}
}

// ClientCount decodes a CLIENT_COUNT attribute's value.
func (a Attribute) ClientCount() (uint16, error) {
	if a.Type != CLIENT_COUNT || len(a.Value) != ClientCountSize {
		return 0, errs.Wrap(errs.CodeProtocol, ErrAttributeTooLarge, "sbcp: not a well-formed CLIENT_COUNT attribute")
	}
	return binary.BigEndian.Uint16(a.Value), nil
}

// String returns the value interpreted as text (USERNAME/MESSAGE/REASON).
func (a Attribute) String() string { return string(a.Value) }

func encodeAttribute(buf []byte, a Attribute) []byte {
	var hdr [attrHeaderSize]byte
	binary.BigEndian.PutUint16(hdr[0:2], uint16(a.Type))
	binary.BigEndian.PutUint16(hdr[2:4], uint16(len(a.Value)))
	buf = append(buf, hdr[:]...)
	buf = append(buf, a.Value...)
	return buf
}

// AttributeIterator lazily walks a raw attribute-payload slice, validating
// each attribute's type and bound as it advances, per spec.md §4.C's
// "streaming attribute iterator that lazily validates as it advances".
type AttributeIterator struct {
	buf []byte
	pos int
	err error
}

// NewAttributeIterator wraps a raw payload (the bytes following the header)
// for streaming decode.
func NewAttributeIterator(payload []byte) *AttributeIterator {
	return &AttributeIterator{buf: payload}
}

// Err returns the first error encountered, if any.
func (it *AttributeIterator) Err() error { return it.err }

// Next advances to the next attribute, returning false at end of payload or
// on the first validation failure (check Err to distinguish the two).
func (it *AttributeIterator) Next() (Attribute, bool) {
	if it.err != nil || it.pos >= len(it.buf) {
		return Attribute{}, false
	}
	if len(it.buf)-it.pos < attrHeaderSize {
		it.err = errs.Wrap(errs.CodeProtocol, ErrLengthMismatch, "sbcp: truncated attribute header")
		return Attribute{}, false
	}
	t := AttrType(binary.BigEndian.Uint16(it.buf[it.pos : it.pos+2]))
	l := int(binary.BigEndian.Uint16(it.buf[it.pos+2 : it.pos+4]))
	it.pos += attrHeaderSize

	max, ok := maxValueLen(t)
	if !ok {
		it.err = ErrUnknownType
		return Attribute{}, false
	}
	if l > max {
		it.err = ErrAttributeTooLarge
		return Attribute{}, false
	}
	if it.pos+l > len(it.buf) {
		it.err = errs.Wrap(errs.CodeProtocol, ErrLengthMismatch, "sbcp: truncated attribute value")
		return Attribute{}, false
	}

	value := it.buf[it.pos : it.pos+l]
	it.pos += l
	return Attribute{Type: t, Value: value}, true
}
