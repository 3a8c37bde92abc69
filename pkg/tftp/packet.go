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

// Package tftp implements the RFC 1350 subset of TFTP described by the
// system's engine component: RRQ/WRQ, DATA/ACK lockstep transfer, and the
// netascii line-ending transform.
package tftp

import (
	"bytes"
	"encoding/binary"

	"github.com/gigamonster256/netkit/internal/errs"
)

// Opcode identifies a TFTP packet's kind.
type Opcode uint16

const (
	OpRRQ Opcode = iota + 1
	OpWRQ
	OpDATA
	OpACK
	OpERROR
)

// ErrorCode is the TFTP ERROR packet's code field.
type ErrorCode uint16

const (
	ErrUndefined ErrorCode = iota
	ErrFileNotFound
	ErrAccessViolation
	ErrDiskFull
	ErrIllegalOperation
	ErrUnknownTransferID
	ErrFileAlreadyExists
	ErrNoSuchUser
)

// Transfer modes; "mail" is explicitly unsupported per spec.md §4.E.
const (
	ModeNetascii = "netascii"
	ModeOctet    = "octet"
)

// MaxDataLen is the maximum DATA payload; a shorter payload terminates the transfer.
const MaxDataLen = 512

// Packet is a decoded TFTP packet. Only the fields relevant to Op are meaningful.
type Packet struct {
	Op       Opcode
	Filename string
	Mode     string
	Block    uint16
	Data     []byte
	Code     ErrorCode
	Message  string
}

// NewRRQ builds a read request.
func NewRRQ(filename, mode string) Packet { return Packet{Op: OpRRQ, Filename: filename, Mode: mode} }

// NewWRQ builds a write request.
func NewWRQ(filename, mode string) Packet { return Packet{Op: OpWRQ, Filename: filename, Mode: mode} }

// NewData builds a DATA packet; data must already be ≤MaxDataLen bytes.
func NewData(block uint16, data []byte) Packet { return Packet{Op: OpDATA, Block: block, Data: data} }

// NewAck builds an ACK packet.
func NewAck(block uint16) Packet { return Packet{Op: OpACK, Block: block} }

// NewError builds an ERROR packet.
func NewError(code ErrorCode, message string) Packet {
	return Packet{Op: OpERROR, Code: code, Message: message}
}

// Encode serializes the packet to its on-wire byte representation.
func (p Packet) Encode() []byte {
	var buf bytes.Buffer
	var op [2]byte
	binary.BigEndian.PutUint16(op[:], uint16(p.Op))
	buf.Write(op[:])

	switch p.Op {
	case OpRRQ, OpWRQ:
		buf.WriteString(p.Filename)
		buf.WriteByte(0)
		buf.WriteString(p.Mode)
		buf.WriteByte(0)
	case OpDATA:
		var block [2]byte
		binary.BigEndian.PutUint16(block[:], p.Block)
		buf.Write(block[:])
		buf.Write(p.Data)
	case OpACK:
		var block [2]byte
		binary.BigEndian.PutUint16(block[:], p.Block)
		buf.Write(block[:])
	case OpERROR:
		var code [2]byte
		binary.BigEndian.PutUint16(code[:], uint16(p.Code))
		buf.Write(code[:])
		buf.WriteString(p.Message)
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

// Decode parses a received datagram into a Packet.
func Decode(raw []byte) (Packet, error) {
	if len(raw) < 2 {
		return Packet{}, errs.New(errs.CodeProtocol, "tftp: packet shorter than opcode")
	}
	op := Opcode(binary.BigEndian.Uint16(raw[0:2]))
	body := raw[2:]

	switch op {
	case OpRRQ, OpWRQ:
		filename, rest, err := readCString(body)
		if err != nil {
			return Packet{}, err
		}
		mode, _, err := readCString(rest)
		if err != nil {
			return Packet{}, err
		}
		return Packet{Op: op, Filename: filename, Mode: mode}, nil

	case OpDATA:
		if len(body) < 2 {
			return Packet{}, errs.New(errs.CodeProtocol, "tftp: DATA shorter than block field")
		}
		return Packet{Op: op, Block: binary.BigEndian.Uint16(body[0:2]), Data: body[2:]}, nil

	case OpACK:
		if len(body) < 2 {
			return Packet{}, errs.New(errs.CodeProtocol, "tftp: ACK shorter than block field")
		}
		return Packet{Op: op, Block: binary.BigEndian.Uint16(body[0:2])}, nil

	case OpERROR:
		if len(body) < 2 {
			return Packet{}, errs.New(errs.CodeProtocol, "tftp: ERROR shorter than code field")
		}
		code := ErrorCode(binary.BigEndian.Uint16(body[0:2]))
		message, _, err := readCString(body[2:])
		if err != nil {
			return Packet{}, err
		}
		return Packet{Op: op, Code: code, Message: message}, nil

	default:
		return Packet{}, errs.New(errs.CodeProtocol, "tftp: unknown opcode %d", op)
	}
}

func readCString(buf []byte) (string, []byte, error) {
	i := bytes.IndexByte(buf, 0)
	if i < 0 {
		return "", nil, errs.New(errs.CodeProtocol, "tftp: missing null terminator")
	}
	return string(buf[:i]), buf[i+1:], nil
}
