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

package logger

import "github.com/sirupsen/logrus"

// Fields is a shallow key/value bag merged into an Entry's log line.
type Fields map[string]any

// Entry is a single fluent log record: build it up with FieldAdd/ErrorAdd,
// finish with Log (or Check, when the outcome is conditional on an error).
type Entry struct {
	log     *logrus.Logger
	Level   Level
	Message string
	Errs    []error
	Fields  Fields
}

// FieldAdd attaches one key/value pair to the entry and returns it for chaining.
func (e *Entry) FieldAdd(key string, val any) *Entry {
	e.Fields[key] = val
	return e
}

// ErrorAdd appends non-nil errors to the entry; nil values are skipped so
// callers can write ErrorAdd(err) without a preceding nil check.
func (e *Entry) ErrorAdd(errs ...error) *Entry {
	for _, err := range errs {
		if err != nil {
			e.Errs = append(e.Errs, err)
		}
	}
	return e
}

// Log emits the entry unconditionally at its configured Level.
func (e *Entry) Log() {
	if e.log == nil || e.Level == NilLevel {
		return
	}
	fields := make(logrus.Fields, len(e.Fields)+1)
	for k, v := range e.Fields {
		fields[k] = v
	}
	if len(e.Errs) == 1 {
		fields["error"] = e.Errs[0]
	} else if len(e.Errs) > 1 {
		fields["errors"] = e.Errs
	}
	e.log.WithFields(fields).Log(e.Level.logrus(), e.Message)
}

// Check logs the entry only if it carries at least one error; otherwise, if
// noErrLevel is not NilLevel, it logs at that level instead with no error
// fields. Returns true if an error was present.
func (e *Entry) Check(noErrLevel Level) bool {
	for _, err := range e.Errs {
		if err != nil {
			e.Log()
			return true
		}
	}
	if noErrLevel != NilLevel {
		e.Level = noErrLevel
		e.Log()
	}
	return false
}
