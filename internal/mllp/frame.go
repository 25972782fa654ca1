// Package mllp implements the Minimal Lower Layer Protocol framing used
// to carry HL7 v2.x messages over TCP, plus the connection handler and
// accept-loop supervisor that sit on top of it.
package mllp

import "strings"

// MLLP envelope bytes: VT <payload> FS CR.
const (
	StartBlock     = 0x0B
	EndBlock       = 0x1C
	CarriageReturn = 0x0D
)

// ExtractFrame finds the first complete MLLP envelope in buf. It returns
// the decoded payload and the number of bytes consumed from the start of
// buf — including any preamble garbage before the first VT, which this
// tolerant framer discards along with the frame rather than preserving
// for a later read. ok is false when no complete frame is present yet.
func ExtractFrame(buf []byte) (payload string, consumed int, ok bool) {
	start := -1
	for i, b := range buf {
		if b == StartBlock {
			start = i
			break
		}
	}
	if start == -1 {
		return "", 0, false
	}

	for i := start + 1; i+1 < len(buf); i++ {
		if buf[i] == EndBlock && buf[i+1] == CarriageReturn {
			// Lossy UTF-8 decode: HL7 in the wild is occasionally Latin-1
			// or windows-1252. Invalid bytes become the replacement rune
			// rather than failing the frame.
			decoded := strings.ToValidUTF8(string(buf[start+1:i]), "�")
			return decoded, i + 2, true
		}
	}

	return "", 0, false
}

// Wrap envelopes payload as a single MLLP frame.
func Wrap(payload string) []byte {
	frame := make([]byte, 0, len(payload)+3)
	frame = append(frame, StartBlock)
	frame = append(frame, payload...)
	frame = append(frame, EndBlock, CarriageReturn)
	return frame
}
