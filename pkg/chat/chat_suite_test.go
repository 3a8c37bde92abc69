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

package chat_test

import (
	"context"
	"net"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gigamonster256/netkit/internal/logger"
	"github.com/gigamonster256/netkit/pkg/chat"
	"github.com/gigamonster256/netkit/pkg/endpoint"
	"github.com/gigamonster256/netkit/pkg/sbcp"
)

func TestChat(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Chat Broker Suite")
}

var testLogger = logger.New()

// testClient is the peer side of a session's pipe: it speaks raw sbcp
// frames so the spec's broker behavior can be observed end to end.
type testClient struct {
	ep *endpoint.Stream
}

func newClientAndSession() (*testClient, *chat.Session) {
	a, bConn := net.Pipe()
	client := &testClient{ep: endpoint.NewStream(a)}
	session := chat.NewSession(endpoint.NewStream(bConn), testLogger)
	return client, session
}

func (c *testClient) join(username string) {
	msg, err := sbcp.Join(username)
	Expect(err).ToNot(HaveOccurred())
	frame, err := msg.Encode()
	Expect(err).ToNot(HaveOccurred())
	Expect(c.ep.Writen(frame)).To(Succeed())
}

func (c *testClient) send(text string) {
	msg, err := sbcp.Send(text)
	Expect(err).ToNot(HaveOccurred())
	frame, err := msg.Encode()
	Expect(err).ToNot(HaveOccurred())
	Expect(c.ep.Writen(frame)).To(Succeed())
}

func (c *testClient) recv() sbcp.Message {
	frame, err := sbcp.ReadFrame(c.ep.Readn)
	Expect(err).ToNot(HaveOccurred())
	msg, err := sbcp.Decode(frame)
	Expect(err).ToNot(HaveOccurred())
	return msg
}

func runSession(ctx context.Context, s *chat.Session, b *chat.Broker) <-chan error {
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, b) }()
	return done
}
