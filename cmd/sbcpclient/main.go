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

// Command sbcpclient is an interactive SBCP chat client:
// cmd/sbcpclient <username> <server> <port>.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gigamonster256/netkit/pkg/endpoint"
	"github.com/gigamonster256/netkit/pkg/sbcp"
)

// idleAfter is how long stdin may stay silent before the client announces
// itself idle, per spec.md §5.
const idleAfter = 10 * time.Second

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: sbcpclient <username> <server> <port>")
		os.Exit(1)
	}
	username, host, portStr := os.Args[1], os.Args[2], os.Args[3]
	if _, err := strconv.Atoi(portStr); err != nil {
		fmt.Fprintln(os.Stderr, "invalid port:", err)
		os.Exit(1)
	}

	ep, err := endpoint.Dial(host, portStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect failed:", err)
		os.Exit(1)
	}
	defer ep.Close()

	join, err := sbcp.Join(username)
	if err != nil {
		fmt.Fprintln(os.Stderr, "join failed:", err)
		os.Exit(1)
	}
	if err := writeFrame(ep, join); err != nil {
		fmt.Fprintln(os.Stderr, "join failed:", err)
		os.Exit(1)
	}

	first, err := readFrame(ep)
	if err != nil {
		fmt.Fprintln(os.Stderr, "server closed connection:", err)
		os.Exit(1)
	}
	if first.Type == sbcp.NAK {
		reason, _ := first.Reason()
		fmt.Fprintln(os.Stderr, "join rejected:", reason)
		os.Exit(1)
	}
	fmt.Println("joined as", username)

	var writeMu sync.Mutex
	lastActivity := make(chan struct{}, 1)

	go readLoop(ep)
	go idleLoop(ep, &writeMu, lastActivity)
	stdinLoop(ep, &writeMu, lastActivity)
}

func stdinLoop(ep *endpoint.Stream, writeMu *sync.Mutex, lastActivity chan<- struct{}) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case lastActivity <- struct{}{}:
		default:
		}
		text := scanner.Text()
		if text == "" {
			continue
		}
		msg, err := sbcp.Send(text)
		if err != nil {
			fmt.Fprintln(os.Stderr, "message rejected:", err)
			continue
		}
		writeMu.Lock()
		err = writeFrame(ep, msg)
		writeMu.Unlock()
		if err != nil {
			fmt.Fprintln(os.Stderr, "send failed:", err)
			return
		}
	}
}

func idleLoop(ep *endpoint.Stream, writeMu *sync.Mutex, lastActivity <-chan struct{}) {
	timer := time.NewTimer(idleAfter)
	defer timer.Stop()
	for {
		select {
		case <-lastActivity:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(idleAfter)
		case <-timer.C:
			idle, err := sbcp.Idle(username())
			if err == nil {
				writeMu.Lock()
				_ = writeFrame(ep, idle)
				writeMu.Unlock()
			}
			timer.Reset(idleAfter)
		}
	}
}

func username() string {
	if len(os.Args) >= 2 {
		return os.Args[1]
	}
	return ""
}

func readLoop(ep *endpoint.Stream) {
	for {
		msg, err := readFrame(ep)
		if err != nil {
			fmt.Fprintln(os.Stderr, "disconnected:", err)
			os.Exit(0)
		}
		printMessage(msg)
	}
}

func printMessage(msg sbcp.Message) {
	switch msg.Type {
	case sbcp.FWD:
		user, _ := msg.Username()
		text, _ := msg.Text()
		fmt.Printf("%s: %s\n", user, text)
	case sbcp.ONLINE:
		user, _ := msg.Username()
		fmt.Printf("* %s joined\n", user)
	case sbcp.OFFLINE:
		user, _ := msg.Username()
		fmt.Printf("* %s left\n", user)
	case sbcp.IDLE:
		user, _ := msg.Username()
		if user != "" {
			fmt.Printf("* %s is idle\n", user)
		}
	}
}

func writeFrame(ep *endpoint.Stream, msg sbcp.Message) error {
	frame, err := msg.Encode()
	if err != nil {
		return err
	}
	return ep.Writen(frame)
}

func readFrame(ep *endpoint.Stream) (sbcp.Message, error) {
	frame, err := sbcp.ReadFrame(ep.Readn)
	if err != nil {
		return sbcp.Message{}, err
	}
	return sbcp.Decode(frame)
}
