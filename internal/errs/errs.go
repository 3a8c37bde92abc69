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

// Package errs provides coded, chainable errors for the netkit components.
//
// Every error raised by a netkit package carries a Code classifying it into
// one of the categories from the error-handling taxonomy (configuration,
// transient, protocol, fatal) so callers can branch on Code() instead of
// string-matching. Errors can be chained with Add to keep a parent's context
// while describing a more specific failure.
package errs

import (
	"errors"
	"fmt"
)

// Code classifies an Error into the propagation-policy buckets described by
// the error handling design: configuration errors prevent start, transient
// errors are retried in place, protocol errors close the current session, and
// fatal errors terminate the owning supervisor.
type Code uint8

const (
	// CodeUnknown is the zero value; never returned by netkit itself.
	CodeUnknown Code = iota
	// CodeConfig marks a configuration error raised synchronously from a
	// setter or from New/Start before any supervisor is spawned.
	CodeConfig
	// CodeTransient marks an interrupted or retryable I/O condition.
	CodeTransient
	// CodeProtocol marks a malformed or out-of-sequence wire message.
	CodeProtocol
	// CodeCapacity marks a rejection caused by a configured capacity bound
	// (max concurrent clients, cache size, username registry full).
	CodeCapacity
	// CodeFatal marks a failure that terminates the owning supervisor
	// (socket creation, bind, listen).
	CodeFatal
)

func (c Code) String() string {
	switch c {
	case CodeConfig:
		return "configuration"
	case CodeTransient:
		return "transient"
	case CodeProtocol:
		return "protocol"
	case CodeCapacity:
		return "capacity"
	case CodeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is a coded error that may wrap a parent error for context.
type Error struct {
	code   Code
	msg    string
	parent error
}

// New builds an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error with the given code that chains the parent error.
func Wrap(code Code, parent error, format string, args ...any) *Error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...), parent: parent}
}

// Add returns a copy of e with parent set, for building a chain after
// construction (mirrors the teacher's hierarchical Add semantics).
func (e *Error) Add(parent error) *Error {
	if e == nil {
		return nil
	}
	n := *e
	n.parent = parent
	return &n
}

// Code returns the error's classification.
func (e *Error) Code() Code {
	if e == nil {
		return CodeUnknown
	}
	return e.code
}

// Error implements the error interface, including the parent's message when present.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.parent != nil {
		return fmt.Sprintf("%s: %s [%s]", e.msg, e.parent.Error(), e.code)
	}
	return fmt.Sprintf("%s [%s]", e.msg, e.code)
}

// Unwrap exposes the parent for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.parent
}

// HasParent reports whether e wraps a non-nil parent error.
func (e *Error) HasParent() bool {
	return e != nil && e.parent != nil
}

// IsCode reports whether err is, or wraps, an *Error with the given code.
func IsCode(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code() == code {
			return true
		}
		err = e.Unwrap()
	}
	return false
}
