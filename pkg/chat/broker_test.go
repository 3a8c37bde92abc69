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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gigamonster256/netkit/pkg/chat"
	"github.com/gigamonster256/netkit/pkg/sbcp"
)

var _ = Describe("Chat Broker", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		broker *chat.Broker
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		broker = chat.NewBroker(4, testLogger)
		go broker.Run(ctx)
	})

	AfterEach(func() { cancel() })

	It("ACKs the first joiner with an empty existing-user list", func() {
		alice, sAlice := newClientAndSession()
		runSession(ctx, sAlice, broker)

		alice.join("alice")
		ack := alice.recv()
		Expect(ack.Type).To(Equal(sbcp.ACK))
		count, err := ack.Attributes[0].ClientCount()
		Expect(err).ToNot(HaveOccurred())
		Expect(count).To(Equal(uint16(1)))
		Expect(ack.Attributes).To(HaveLen(1))
	})

	It("broadcasts ONLINE to existing sessions when a new user joins", func() {
		alice, sAlice := newClientAndSession()
		runSession(ctx, sAlice, broker)
		alice.join("alice")
		_ = alice.recv() // ACK

		bob, sBob := newClientAndSession()
		runSession(ctx, sBob, broker)
		bob.join("bob")
		bobAck := bob.recv()
		Expect(bobAck.Type).To(Equal(sbcp.ACK))
		count, _ := bobAck.Attributes[0].ClientCount()
		Expect(count).To(Equal(uint16(2)))
		name, _ := bobAck.Attributes[1].String(), true
		Expect(name).To(Equal("alice"))

		online := alice.recv()
		Expect(online.Type).To(Equal(sbcp.ONLINE))
		n, _ := online.Username()
		Expect(n).To(Equal("bob"))
	})

	It("NAKs a duplicate username", func() {
		alice, sAlice := newClientAndSession()
		runSession(ctx, sAlice, broker)
		alice.join("alice")
		_ = alice.recv()

		mallory, sMallory := newClientAndSession()
		runSession(ctx, sMallory, broker)
		mallory.join("alice")
		nak := mallory.recv()
		Expect(nak.Type).To(Equal(sbcp.NAK))
		reason, _ := nak.Reason()
		Expect(reason).To(Equal("Username already exists"))
	})

	It("NAKs once the broker is at capacity", func() {
		broker = chat.NewBroker(1, testLogger)
		go broker.Run(ctx)

		alice, sAlice := newClientAndSession()
		runSession(ctx, sAlice, broker)
		alice.join("alice")
		_ = alice.recv()

		bob, sBob := newClientAndSession()
		runSession(ctx, sBob, broker)
		bob.join("bob")
		nak := bob.recv()
		Expect(nak.Type).To(Equal(sbcp.NAK))
		reason, _ := nak.Reason()
		Expect(reason).To(Equal("Maximum clients limit"))
	})

	It("forwards SEND as FWD to every other session", func() {
		alice, sAlice := newClientAndSession()
		runSession(ctx, sAlice, broker)
		alice.join("alice")
		_ = alice.recv()

		bob, sBob := newClientAndSession()
		runSession(ctx, sBob, broker)
		bob.join("bob")
		_ = bob.recv()
		_ = alice.recv() // ONLINE(bob)

		alice.send("hello room")
		fwd := bob.recv()
		Expect(fwd.Type).To(Equal(sbcp.FWD))
		name, _ := fwd.Username()
		text, _ := fwd.Text()
		Expect(name).To(Equal("alice"))
		Expect(text).To(Equal("hello room"))
	})

	It("broadcasts OFFLINE when a session disconnects", func() {
		alice, sAlice := newClientAndSession()
		runSession(ctx, sAlice, broker)
		alice.join("alice")
		_ = alice.recv()

		bob, sBob := newClientAndSession()
		bobDone := runSession(ctx, sBob, broker)
		bob.join("bob")
		_ = bob.recv()
		_ = alice.recv() // ONLINE(bob)

		Expect(bob.ep.Close()).To(Succeed())
		Eventually(bobDone, time.Second).Should(Receive())

		offline := alice.recv()
		Expect(offline.Type).To(Equal(sbcp.OFFLINE))
		name, _ := offline.Username()
		Expect(name).To(Equal("bob"))
	})
})
