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

// Command tftpserver runs the TFTP file server: cmd/tftpserver [<port>].
// Files are read from and written to the process's current working
// directory. Defaults to port 69; tests and local runs typically pass a
// non-privileged port instead.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gigamonster256/netkit/internal/logger"
	"github.com/gigamonster256/netkit/pkg/tftp"
)

const defaultPort = 69

func main() {
	port := defaultPort
	if len(os.Args) == 2 {
		p, err := strconv.Atoi(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "invalid port:", err)
			os.Exit(1)
		}
		port = p
	} else if len(os.Args) > 2 {
		fmt.Fprintln(os.Stderr, "usage: tftpserver [<port>]")
		os.Exit(1)
	}

	log := logger.New()
	srv, err := tftp.NewServer("", port, log)
	if err != nil {
		log.Entry(logger.ErrorLevel, "tftpserver: configuration error").ErrorAdd(err).Log()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := srv.Exec(ctx); err != nil {
		log.Entry(logger.ErrorLevel, "tftpserver: exited with error").ErrorAdd(err).Log()
		os.Exit(1)
	}
}
