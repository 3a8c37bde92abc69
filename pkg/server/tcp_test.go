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

package server_test

import (
	"context"
	"time"

	"github.com/gigamonster256/netkit/pkg/server"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TCP Server Lifecycle", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		srv    server.TCPServer
		port   int
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(globalCtx, 10*time.Second)
		port = freePort()
		srv = server.NewTCP(testLogger, echoHandler)
		Expect(srv.SetHost("127.0.0.1")).To(Succeed())
		Expect(srv.SetPort(port)).To(Succeed())
	})

	AfterEach(func() {
		_ = srv.Stop(true)
		cancel()
	})

	It("starts unstarted and transitions to running", func() {
		Expect(srv.State()).To(Equal(server.StateUnstarted))
		Expect(srv.Start(ctx)).To(Succeed())
		Expect(waitUntil(time.Second, srv.IsRunning)).To(BeTrue())
	})

	It("rejects a second Start while running", func() {
		Expect(srv.Start(ctx)).To(Succeed())
		Expect(waitUntil(time.Second, srv.IsRunning)).To(BeTrue())
		Expect(srv.Start(ctx)).To(MatchError(server.ErrRunning))
	})

	It("rejects Start with no handlers registered", func() {
		empty := server.NewTCP(testLogger)
		Expect(empty.SetPort(freePort())).To(Succeed())
		Expect(empty.Start(ctx)).To(MatchError(server.ErrNoHandlers))
	})

	It("rejects config changes once running", func() {
		Expect(srv.Start(ctx)).To(Succeed())
		Expect(waitUntil(time.Second, srv.IsRunning)).To(BeTrue())
		Expect(srv.SetPort(freePort())).To(MatchError(server.ErrRunning))
	})

	It("echoes data to a connected client", func() {
		Expect(srv.Start(ctx)).To(Succeed())
		Expect(waitUntil(time.Second, srv.IsRunning)).To(BeTrue())

		conn, err := dial(port)
		Expect(err).ToNot(HaveOccurred())
		defer conn.Close()

		_, err = conn.Write([]byte("hello"))
		Expect(err).ToNot(HaveOccurred())

		buf := make([]byte, 5)
		_, err = conn.Read(buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(buf)).To(Equal("hello"))
	})

	It("Done blocks while running and closes after a graceful Stop", func() {
		Expect(srv.Start(ctx)).To(Succeed())
		Expect(waitUntil(time.Second, srv.IsRunning)).To(BeTrue())

		select {
		case <-srv.Done():
			Fail("Done should not be closed while running")
		case <-time.After(100 * time.Millisecond):
		}

		Expect(srv.Stop(false)).To(Succeed())
		Eventually(srv.Done(), time.Second).Should(BeClosed())
		Expect(srv.State()).To(Equal(server.StateStopped))
	})

	It("drops connections beyond MaxClients", func() {
		release := make(chan struct{})
		Expect(srv.SetMaxClients(1)).To(Succeed())
		Expect(srv.SetHandlers(blockingHandler(release))).To(Succeed())
		Expect(srv.Start(ctx)).To(Succeed())
		Expect(waitUntil(time.Second, srv.IsRunning)).To(BeTrue())
		defer close(release)

		first, err := dial(port)
		Expect(err).ToNot(HaveOccurred())
		defer first.Close()

		Eventually(srv.OpenConnections, time.Second).Should(Equal(int64(1)))

		second, err := dial(port)
		Expect(err).ToNot(HaveOccurred())
		defer second.Close()

		buf := make([]byte, 1)
		second.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		_, err = second.Read(buf)
		Expect(err).To(HaveOccurred())
		Expect(srv.OpenConnections()).To(Equal(int64(1)))
	})
})
