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

package proxy_test

import (
	"testing"
	"time"

	"github.com/gigamonster256/netkit/pkg/proxy"
)

func TestCacheStoreAndLookup(t *testing.T) {
	c := proxy.NewCache()
	key := proxy.Key("http://example.com/")
	now := time.Now()

	if _, _, ok := c.Lookup(key); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Store(key, []byte("response-bytes"), now, now.Add(time.Hour))
	got, expires, ok := c.Lookup(key)
	if !ok {
		t.Fatal("expected hit after Store")
	}
	if string(got) != "response-bytes" {
		t.Fatalf("got %q", got)
	}
	if !expires.Equal(now.Add(time.Hour)) {
		t.Fatalf("expires = %v", expires)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := proxy.NewCache()
	now := time.Now()

	for i := 0; i < proxy.MaxEntries; i++ {
		key := proxy.Key(string(rune('a' + i)))
		c.Store(key, []byte{byte(i)}, now.Add(time.Duration(i)*time.Second), now.Add(time.Hour))
	}
	if c.Len() != proxy.MaxEntries {
		t.Fatalf("Len = %d, want %d", c.Len(), proxy.MaxEntries)
	}

	// The first-inserted entry has the oldest last_used; inserting one more
	// distinct key must evict it rather than any of the others.
	oldestKey := proxy.Key(string(rune('a')))
	newKey := proxy.Key("overflow")
	c.Store(newKey, []byte("new"), now.Add(time.Hour), now.Add(2*time.Hour))

	if c.Len() != proxy.MaxEntries {
		t.Fatalf("Len after overflow = %d, want %d", c.Len(), proxy.MaxEntries)
	}
	if _, _, ok := c.Lookup(oldestKey); ok {
		t.Fatal("expected least-recently-used entry to be evicted")
	}
	if _, _, ok := c.Lookup(newKey); !ok {
		t.Fatal("expected newly inserted entry to survive")
	}
}

func TestCacheTouchUpdatesLastUsed(t *testing.T) {
	c := proxy.NewCache()
	key := proxy.Key("http://example.com/")
	now := time.Now()
	c.Store(key, []byte("x"), now, now.Add(time.Hour))

	// Fill the cache with MaxEntries-1 other entries older than key's touch,
	// then touch key forward so it is not the LRU victim on overflow.
	for i := 0; i < proxy.MaxEntries-1; i++ {
		k := proxy.Key(string(rune('b' + i)))
		c.Store(k, []byte{byte(i)}, now.Add(-time.Hour), now.Add(time.Hour))
	}
	c.Touch(key, now.Add(time.Minute))

	c.Store(proxy.Key("overflow"), []byte("new"), now.Add(2*time.Minute), now.Add(time.Hour))
	if _, _, ok := c.Lookup(key); !ok {
		t.Fatal("expected recently touched entry to survive eviction")
	}
}
