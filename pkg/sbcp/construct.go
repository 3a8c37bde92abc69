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

package sbcp

// Join builds a JOIN message for the given username.
func Join(username string) (Message, error) {
	a, err := NewAttribute(USERNAME, []byte(username))
	if err != nil {
		return Message{}, err
	}
	return New(JOIN, a)
}

// Send builds a SEND message carrying the given text.
func Send(text string) (Message, error) {
	a, err := NewAttribute(MESSAGE, []byte(text))
	if err != nil {
		return Message{}, err
	}
	return New(SEND, a)
}

// Forward builds a FWD message rewriting a sender's SEND for broadcast.
func Forward(username, text string) (Message, error) {
	u, err := NewAttribute(USERNAME, []byte(username))
	if err != nil {
		return Message{}, err
	}
	t, err := NewAttribute(MESSAGE, []byte(text))
	if err != nil {
		return Message{}, err
	}
	return New(FWD, u, t)
}

// Ack builds an ACK listing the existing usernames at join time.
func Ack(existing []string) (Message, error) {
	attrs := make([]Attribute, 0, 1+len(existing))
	attrs = append(attrs, NewClientCount(uint16(len(existing)+1)))
	for _, u := range existing {
		a, err := NewAttribute(USERNAME, []byte(u))
		if err != nil {
			return Message{}, err
		}
		attrs = append(attrs, a)
	}
	return New(ACK, attrs...)
}

// Nak builds a NAK carrying a rejection reason.
func Nak(reason string) (Message, error) {
	a, err := NewAttribute(REASON, []byte(reason))
	if err != nil {
		return Message{}, err
	}
	return New(NAK, a)
}

// Online builds an ONLINE presence event.
func Online(username string) (Message, error) {
	a, err := NewAttribute(USERNAME, []byte(username))
	if err != nil {
		return Message{}, err
	}
	return New(ONLINE, a)
}

// Offline builds an OFFLINE presence event.
func Offline(username string) (Message, error) {
	a, err := NewAttribute(USERNAME, []byte(username))
	if err != nil {
		return Message{}, err
	}
	return New(OFFLINE, a)
}

// Idle builds an IDLE notification, optionally naming the sender.
func Idle(username string) (Message, error) {
	if username == "" {
		return New(IDLE)
	}
	a, err := NewAttribute(USERNAME, []byte(username))
	if err != nil {
		return Message{}, err
	}
	return New(IDLE, a)
}
