// Package transfer implements the binary framing used to hand games to
// out-of-process workers.
//
// Every object travels in a frame: a four-byte start marker naming its
// kind, the payload, and a matching end marker. All integers are little
// endian. Letter sets travel as formula text, so the two sides may number
// their propositions differently; a stream therefore opens with a Header
// frame carrying the proposition names, and every later letter is parsed
// against the alphabet it announces.
//
// Payload layouts:
//
//	String     len:u32 bytes
//	Formula    len:u32 bytes
//	Letter     Formula
//	Header     n:u32 String*n  m:u32 String*m
//	Downset    count:u32 dim:u32 boolStart:u32 kind:u8 strategy:u8 values:i8*(count*dim)
//	Automaton  String(name) states:u32 edges:u32 initial:u32 accepting:u8*states
//	           (src:u32 dst:u32 Letter)*edges
//	Game       Automaton k:u32 turn:u8 flags:u8 [Downset] [Letter]
//
// Decoders verify markers when built with the kbounddebug tag, or when asked
// to with WithMarkerChecks. Otherwise marker bytes are read and skipped.
package transfer

import (
	"errors"
	"fmt"
)

var (
	// ErrBadMarker reports a frame marker of the wrong kind.
	ErrBadMarker = errors.New("transfer: bad frame marker")
	// ErrTruncated reports a stream that ended inside a frame.
	ErrTruncated = errors.New("transfer: truncated frame")
	// ErrMalformed reports a well-framed payload with impossible contents.
	ErrMalformed = errors.New("transfer: malformed payload")
)

// Frame is the kind of object a frame carries.
type Frame uint8

const (
	FrameString Frame = iota + 1
	FrameFormula
	FrameLetter
	FrameHeader
	FrameDownset
	FrameAutomaton
	FrameGame
)

var frameNames = [...]string{"", "string", "formula", "letter", "header", "downset", "automaton", "game"}

func (f Frame) String() string {
	if f > 0 && int(f) < len(frameNames) {
		return frameNames[f]
	}
	return fmt.Sprintf("Frame(%d)", uint8(f))
}

// Markers are "KB", the frame kind, then 0x01 to open or 0xFE to close.
const markerBase uint32 = 0x4B420000

func startMarker(f Frame) uint32 { return markerBase | uint32(f)<<8 | 0x01 }

func endMarker(f Frame) uint32 { return markerBase | uint32(f)<<8 | 0xFE }

// frameOf maps a start marker back to its kind.
func frameOf(marker uint32) (Frame, bool) {
	if marker&0xFFFF0000 != markerBase || marker&0xFF != 0x01 {
		return 0, false
	}
	f := Frame(marker >> 8 & 0xFF)
	if f == 0 || int(f) >= len(frameNames) {
		return 0, false
	}
	return f, true
}

// maxLen bounds every length and count read from a stream.
const maxLen = 1 << 28

// game flags
const (
	flagSolved uint8 = 1 << iota
	flagSafe
	flagInvariant
)
