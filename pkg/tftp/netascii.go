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

// EncodeNetascii transforms a raw byte stream for netascii transmission:
// LF becomes CRLF, a lone CR becomes CR NUL, and an existing CRLF passes
// unchanged.
func EncodeNetascii(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		switch b {
		case '\n':
			out = append(out, '\r', '\n')
		case '\r':
			if i+1 < len(raw) && raw[i+1] == '\n' {
				out = append(out, '\r', '\n')
				i++
			} else {
				out = append(out, '\r', 0)
			}
		default:
			out = append(out, b)
		}
	}
	return out
}

// NetasciiDecoder reverses EncodeNetascii: CRLF becomes LF, CR NUL becomes a
// lone CR. The decoder carries one byte of state (a pending CR) across calls so
// a CR/LF pair split across DATA blocks still decodes correctly; a fresh
// decoder is created per transfer.
type NetasciiDecoder struct {
	pendingCR bool
}

// Decode consumes one DATA block's worth of bytes and returns the
// corresponding untransformed bytes.
func (d *NetasciiDecoder) Decode(block []byte) []byte {
	out := make([]byte, 0, len(block))
	for _, b := range block {
		if d.pendingCR {
			d.pendingCR = false
			if b == '\n' {
				out = append(out, '\n')
				continue
			}
			if b == 0 {
				out = append(out, '\r')
				continue
			}
			// Malformed stream (CR not followed by LF or NUL): emit the CR
			// verbatim and fall through to process b normally.
			out = append(out, '\r')
		}
		if b == '\r' {
			d.pendingCR = true
			continue
		}
		out = append(out, b)
	}
	return out
}

// Flush returns any byte withheld pending a following LF/NUL that never
// arrived (end of transfer with a trailing lone CR).
func (d *NetasciiDecoder) Flush() []byte {
	if d.pendingCR {
		d.pendingCR = false
		return []byte{'\r'}
	}
	return nil
}
