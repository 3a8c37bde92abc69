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

// Package sbcp implements the wire codec for the Simple Broadcast Chat
// Protocol: a fixed 4-byte header followed by TLV attributes.
package sbcp

import "github.com/gigamonster256/netkit/internal/errs"

// Version is the only protocol version this codec accepts.
const Version = 3

// MaxPayload bounds the total size of a frame's concatenated attributes.
const MaxPayload = 1024

// HeaderSize is the fixed frame header length in bytes.
const HeaderSize = 4

// Type enumerates the SBCP message types, packed into the header's 7-bit
// type field.
type Type uint8

const (
	JOIN Type = iota
	SEND
	FWD
	ACK
	NAK
	ONLINE
	OFFLINE
	IDLE
)

func (t Type) String() string {
	switch t {
	case JOIN:
		return "JOIN"
	case SEND:
		return "SEND"
	case FWD:
		return "FWD"
	case ACK:
		return "ACK"
	case NAK:
		return "NAK"
	case ONLINE:
		return "ONLINE"
	case OFFLINE:
		return "OFFLINE"
	case IDLE:
		return "IDLE"
	default:
		return "UNKNOWN"
	}
}

// AttrType enumerates the SBCP attribute types.
type AttrType uint16

const (
	USERNAME AttrType = iota
	MESSAGE
	REASON
	CLIENT_COUNT
)

func (a AttrType) String() string {
	switch a {
	case USERNAME:
		return "USERNAME"
	case MESSAGE:
		return "MESSAGE"
	case REASON:
		return "REASON"
	case CLIENT_COUNT:
		return "CLIENT_COUNT"
	default:
		return "UNKNOWN"
	}
}

// Per-attribute value size bounds (spec.md §3).
const (
	MaxUsername = 16
	MaxMessage  = 512
	MaxReason   = 32
	ClientCountSize = 2
)

var (
	// ErrInvalidVersion is returned when a decoded header's version field
	// is not Version.
	ErrInvalidVersion = errs.New(errs.CodeProtocol, "sbcp: invalid version")
	// ErrUnknownType marks a header or attribute whose type is not one of
	// the enumerated constants.
	ErrUnknownType = errs.New(errs.CodeProtocol, "sbcp: unknown type")
	// ErrAttributeTooLarge marks a value exceeding its attribute's bound.
	ErrAttributeTooLarge = errs.New(errs.CodeProtocol, "sbcp: attribute value too large")
	// ErrPayloadTooLarge marks a frame whose total attribute size exceeds MaxPayload.
	ErrPayloadTooLarge = errs.New(errs.CodeProtocol, "sbcp: payload too large")
	// ErrLengthMismatch marks a header length field that disagrees with the
	// sum of attribute sizes actually present.
	ErrLengthMismatch = errs.New(errs.CodeProtocol, "sbcp: header length mismatch")
	// ErrValidation marks a message that fails its per-type attribute rules.
	ErrValidation = errs.New(errs.CodeProtocol, "sbcp: message validation failed")
)
