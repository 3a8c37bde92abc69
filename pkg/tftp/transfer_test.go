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

package tftp

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gigamonster256/netkit/internal/logger"
	"github.com/gigamonster256/netkit/pkg/endpoint"
)

// newClientSocket opens the unconnected UDP socket a real TFTP client would
// use: it doesn't yet know the server's per-transfer ephemeral port, only
// learns it from the source address of the first reply.
func newClientSocket(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTransferEndpoint builds the server-side per-transfer Datagram, as
// server.go's handler does for an incoming peer address.
func newTransferEndpoint(t *testing.T, peer net.Addr) *endpoint.Datagram {
	t.Helper()
	dg, err := endpoint.DialDatagram(peer)
	if err != nil {
		t.Fatalf("DialDatagram: %v", err)
	}
	t.Cleanup(func() { dg.Close() })
	return dg
}

func newTestServer() *Server {
	return &Server{log: logger.New()}
}

func TestServeRRQTransfersFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greeting.txt")
	content := bytes.Repeat([]byte("hello world, "), 100) // spans multiple 512-byte blocks
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	client := newClientSocket(t)
	s := newTestServer()

	// The handler normally learns the peer address from the listener's
	// RecvFrom; here we know it directly since we created the client socket.
	req := NewRRQ(path, ModeOctet)
	_ = req.Encode() // the "first packet" the real listener would have parsed

	dg := newTransferEndpoint(t, client.LocalAddr())
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		s.serveRRQ(dg, req)
	}()

	var got []byte
	buf := make([]byte, 65507)
	var serverAddr *net.UDPAddr
	block := uint16(1)
	for {
		client.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, addr, err := client.ReadFromUDP(buf)
		if err != nil {
			t.Fatalf("client read: %v", err)
		}
		if serverAddr == nil {
			serverAddr = addr
		}
		pkt, err := Decode(buf[:n])
		if err != nil {
			t.Fatalf("client decode: %v", err)
		}
		if pkt.Op != OpDATA || pkt.Block != block {
			t.Fatalf("unexpected packet %+v", pkt)
		}
		got = append(got, pkt.Data...)

		ack := NewAck(block).Encode()
		if _, err := client.WriteToUDP(ack, serverAddr); err != nil {
			t.Fatalf("client ack write: %v", err)
		}
		if len(pkt.Data) < MaxDataLen {
			break
		}
		block++
	}

	<-serverDone
	if !bytes.Equal(got, content) {
		t.Fatalf("transferred %d bytes, want %d bytes matching source", len(got), len(content))
	}
}

func TestServeWRQReceivesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "uploaded.txt")
	content := bytes.Repeat([]byte("abcdefghij"), 80)

	client := newClientSocket(t)
	s := newTestServer()
	req := NewWRQ(path, ModeOctet)

	dg := newTransferEndpoint(t, client.LocalAddr())
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		s.serveWRQ(dg, req)
	}()

	buf := make([]byte, 65507)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, serverAddr, err := client.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("client read initial ack: %v", err)
	}
	ack0, err := Decode(buf[:n])
	if err != nil || ack0.Op != OpACK || ack0.Block != 0 {
		t.Fatalf("expected ACK(0), got %+v err=%v", ack0, err)
	}

	block := uint16(1)
	for off := 0; ; off += MaxDataLen {
		end := off + MaxDataLen
		last := false
		if end >= len(content) {
			end = len(content)
			last = true
		}
		data := NewData(block, content[off:end]).Encode()
		if _, err := client.WriteToUDP(data, serverAddr); err != nil {
			t.Fatalf("client data write: %v", err)
		}

		client.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _, err := client.ReadFromUDP(buf)
		if err != nil {
			t.Fatalf("client read ack: %v", err)
		}
		ack, err := Decode(buf[:n])
		if err != nil || ack.Op != OpACK || ack.Block != block {
			t.Fatalf("expected ACK(%d), got %+v err=%v", block, ack, err)
		}
		if last {
			break
		}
		block++
	}

	<-serverDone
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("received %d bytes, want %d bytes matching source", len(got), len(content))
	}
}

func TestServeRRQRetransmitsOnLostAck(t *testing.T) {
	old := blockTimeout
	blockTimeout = 100 * time.Millisecond
	defer func() { blockTimeout = old }()

	dir := t.TempDir()
	path := filepath.Join(dir, "short.txt")
	content := []byte("single block payload")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	client := newClientSocket(t)
	s := newTestServer()
	req := NewRRQ(path, ModeOctet)

	dg := newTransferEndpoint(t, client.LocalAddr())
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		s.serveRRQ(dg, req)
	}()

	buf := make([]byte, 65507)

	// First DATA(1): drop it (don't ACK), forcing a retransmit.
	client.SetReadDeadline(time.Now().Add(1 * time.Second))
	n, serverAddr, err := client.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("client read first data: %v", err)
	}
	first, err := Decode(buf[:n])
	if err != nil || first.Op != OpDATA || first.Block != 1 {
		t.Fatalf("expected DATA(1), got %+v err=%v", first, err)
	}

	// Retransmitted DATA(1): ACK it this time.
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err = client.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("client read retransmitted data: %v", err)
	}
	retx, err := Decode(buf[:n])
	if err != nil || retx.Op != OpDATA || retx.Block != 1 || !bytes.Equal(retx.Data, first.Data) {
		t.Fatalf("expected identical retransmitted DATA(1), got %+v err=%v", retx, err)
	}

	ack := NewAck(1).Encode()
	if _, err := client.WriteToUDP(ack, serverAddr); err != nil {
		t.Fatalf("client ack write: %v", err)
	}

	<-serverDone
}

func TestServeRRQIgnoresStaleAckWithoutRetransmit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "two-blocks.txt")
	content := bytes.Repeat([]byte("x"), MaxDataLen+10)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	client := newClientSocket(t)
	s := newTestServer()
	req := NewRRQ(path, ModeOctet)

	dg := newTransferEndpoint(t, client.LocalAddr())
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		s.serveRRQ(dg, req)
	}()

	buf := make([]byte, 65507)
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, serverAddr, err := client.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("client read DATA(1): %v", err)
	}
	d1, err := Decode(buf[:n])
	if err != nil || d1.Op != OpDATA || d1.Block != 1 {
		t.Fatalf("expected DATA(1), got %+v err=%v", d1, err)
	}

	// Send a stale ACK(0) first: per the Sorcerer's Apprentice fix the
	// server must silently ignore it rather than retransmit DATA(1).
	if _, err := client.WriteToUDP(NewAck(0).Encode(), serverAddr); err != nil {
		t.Fatalf("stale ack write: %v", err)
	}

	// If the server retransmitted, we'd see another DATA(1) here instead of
	// DATA(2); a short deadline after the real ACK confirms no duplicate
	// arrives first.
	if _, err := client.WriteToUDP(NewAck(1).Encode(), serverAddr); err != nil {
		t.Fatalf("real ack write: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err = client.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("client read DATA(2): %v", err)
	}
	d2, err := Decode(buf[:n])
	if err != nil || d2.Op != OpDATA || d2.Block != 2 {
		t.Fatalf("expected DATA(2) with no duplicate DATA(1) in between, got %+v err=%v", d2, err)
	}

	if _, err := client.WriteToUDP(NewAck(2).Encode(), serverAddr); err != nil {
		t.Fatalf("final ack write: %v", err)
	}

	<-serverDone
}
