package wire

import (
	"strings"
	"unicode/utf8"
)

// payloadMarker prefixes every meaningful line of the stream.
const payloadMarker = "data: "

// LineAssembler reassembles complete logical lines from raw byte chunks.
// Chunk boundaries may fall anywhere, including inside a multi-byte UTF-8
// sequence; the trailing bytes of an unfinished rune are carried into the
// next push so no character is ever fabricated or dropped.
type LineAssembler struct {
	// remainder holds undecoded trailing bytes of a rune split across chunks.
	remainder []byte
	// pending holds the trailing partial line awaiting its line feed.
	pending string
}

func NewLineAssembler() *LineAssembler {
	return &LineAssembler{}
}

// Push consumes one arriving chunk and returns every line completed by it,
// in stream order. The trailing partial line is retained for the next push.
func (a *LineAssembler) Push(chunk []byte) []string {
	data := chunk
	if len(a.remainder) > 0 {
		data = append(a.remainder, chunk...)
		a.remainder = nil
	}

	if tail := incompleteTailLen(data); tail > 0 {
		a.remainder = append([]byte(nil), data[len(data)-tail:]...)
		data = data[:len(data)-tail]
	}

	text := a.pending + string(data)
	lines := strings.Split(text, "\n")
	a.pending = lines[len(lines)-1]
	return lines[:len(lines)-1]
}

// Flush returns the retained partial line, if any, and resets the assembler.
// Call it once the transport reports end of stream.
func (a *LineAssembler) Flush() (string, bool) {
	line := a.pending
	if len(a.remainder) > 0 {
		// An unterminated rune at end of stream decodes as-is.
		line += string(a.remainder)
	}
	a.pending = ""
	a.remainder = nil
	return line, line != ""
}

// Payload extracts the payload of a data line. Lines without the marker,
// including blank keep-alive lines, carry no payload and are skipped.
//
// The framing splits on single line feeds only and ignores the event:/id:
// fields of the full event-stream convention; it is valid as long as
// payloads never embed raw line breaks.
func Payload(line string) (string, bool) {
	line = strings.TrimSuffix(line, "\r")
	payload, ok := strings.CutPrefix(line, payloadMarker)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(payload), true
}

// incompleteTailLen reports how many bytes at the end of data form the start
// of a UTF-8 sequence whose continuation bytes have not arrived yet.
func incompleteTailLen(data []byte) int {
	for i := 1; i <= utf8.UTFMax && i <= len(data); i++ {
		b := data[len(data)-i]
		if b < utf8.RuneSelf {
			return 0
		}
		if b&0xC0 == 0x80 {
			// Continuation byte, keep looking for the leading byte.
			continue
		}
		if size := leadingRuneLen(b); size > i {
			return i
		}
		return 0
	}
	return 0
}

func leadingRuneLen(b byte) int {
	switch {
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	default:
		// Invalid leading byte; pass it through rather than stalling.
		return 1
	}
}
