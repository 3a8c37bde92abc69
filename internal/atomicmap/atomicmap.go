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

// Package atomicmap is a typed wrapper over sync.Map, trimmed from the
// teacher's generic atomic.Map to the operations the chat registry actually
// needs.
package atomicmap

import "sync"

// Map is a concurrency-safe key/value store for comparable keys and any
// value type, backed by sync.Map.
type Map[K comparable, V any] struct {
	m sync.Map
}

func (o *Map[K, V]) cast(in any, ok bool) (V, bool) {
	if !ok {
		var zero V
		return zero, false
	}
	v, ok := in.(V)
	return v, ok
}

// Load returns the value stored for key, if any.
func (o *Map[K, V]) Load(key K) (V, bool) {
	v, ok := o.m.Load(key)
	return o.cast(v, ok)
}

// Store sets the value for key.
func (o *Map[K, V]) Store(key K, val V) {
	o.m.Store(key, val)
}

// LoadOrStore returns the existing value for key if present, otherwise it
// stores val and returns it. The loaded bool reports which happened.
func (o *Map[K, V]) LoadOrStore(key K, val V) (V, bool) {
	actual, loaded := o.m.LoadOrStore(key, val)
	v, _ := o.cast(actual, true)
	return v, loaded
}

// LoadAndDelete removes key and returns the value it held, if any.
func (o *Map[K, V]) LoadAndDelete(key K) (V, bool) {
	v, ok := o.m.LoadAndDelete(key)
	return o.cast(v, ok)
}

// Delete removes key, if present.
func (o *Map[K, V]) Delete(key K) {
	o.m.Delete(key)
}

// Range calls f for every stored pair until f returns false or the map is exhausted.
func (o *Map[K, V]) Range(f func(key K, val V) bool) {
	o.m.Range(func(k, v any) bool {
		key, ok := k.(K)
		if !ok {
			return true
		}
		val, ok := o.cast(v, true)
		if !ok {
			return true
		}
		return f(key, val)
	})
}

// Len returns the number of stored entries. O(n); intended for diagnostics
// and tests, not hot paths.
func (o *Map[K, V]) Len() int {
	n := 0
	o.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
