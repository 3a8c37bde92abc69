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

// Package logger is a trimmed, logrus-backed reimplementation of the
// teacher's fluent Entry-based logger: construct an Entry, decorate it with
// fields and errors, then Log() it. Components never call logrus directly.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the handle every netkit component receives; it only knows how
// to mint Entry values at a given Level.
type Logger interface {
	Entry(lvl Level, message string) *Entry
	SetOutput(w io.Writer)
	SetLevel(lvl Level)
}

type logger struct {
	log *logrus.Logger
}

// New returns a Logger writing text-formatted entries to os.Stderr at InfoLevel.
func New() Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &logger{log: l}
}

func (o *logger) Entry(lvl Level, message string) *Entry {
	return &Entry{
		log:     o.log,
		Level:   lvl,
		Message: message,
		Fields:  make(Fields),
	}
}

func (o *logger) SetOutput(w io.Writer) {
	o.log.SetOutput(w)
}

func (o *logger) SetLevel(lvl Level) {
	o.log.SetLevel(lvl.logrus())
}
