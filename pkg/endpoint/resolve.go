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

// Package endpoint implements the blocking, byte-framed stream and datagram
// wrappers that every netkit server/client is built on.
package endpoint

import (
	"net"
	"net/netip"
	"strings"

	"github.com/gigamonster256/netkit/internal/errs"
)

// Resolve maps a hostname, IPv4 literal, or IPv6 literal to its canonical
// IPv6 representation, following the resolution order from the connection
// model: an IPv6 literal is used as-is, a name is resolved via the name
// service (A records are presented as ::ffff:x.x.x.x), and an IPv4 literal
// is mapped directly to ::ffff:x.x.x.x.
func Resolve(host string) (netip.Addr, error) {
	switch {
	case strings.Contains(host, ":"):
		addr, err := netip.ParseAddr(host)
		if err != nil {
			return netip.Addr{}, errs.Wrap(errs.CodeConfig, err, "resolve: invalid IPv6 literal %q", host)
		}
		return addr, nil

	case containsAlpha(host):
		ips, err := net.LookupIP(host)
		if err != nil {
			return netip.Addr{}, errs.Wrap(errs.CodeTransient, err, "resolve: lookup %q", host)
		}
		for _, ip := range ips {
			if v4 := ip.To4(); v4 != nil {
				return netip.AddrFrom16(netip.AddrFrom4([4]byte(v4)).As16()), nil
			}
		}
		for _, ip := range ips {
			if a, ok := netip.AddrFromSlice(ip); ok {
				return a, nil
			}
		}
		return netip.Addr{}, errs.New(errs.CodeConfig, "resolve: no usable address for %q", host)

	default:
		addr, err := netip.ParseAddr(host)
		if err != nil {
			return netip.Addr{}, errs.Wrap(errs.CodeConfig, err, "resolve: invalid IPv4 literal %q", host)
		}
		if addr.Is4() {
			return netip.AddrFrom16(addr.As16()), nil
		}
		return addr, nil
	}
}

func containsAlpha(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

// CanonicalPeer extracts the canonical IPv6 textual peer address from a
// net.Addr as produced by Accept/Dial, mapping IPv4 peers to ::ffff:x.x.x.x.
func CanonicalPeer(a net.Addr) netip.Addr {
	host, _, err := net.SplitHostPort(a.String())
	if err != nil {
		host = a.String()
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}
	}
	if addr.Is4() {
		return netip.AddrFrom16(addr.As16())
	}
	if addr.Is4In6() {
		return addr
	}
	return addr
}
