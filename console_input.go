package timedinput

import (
	"unicode"
	"unicode/utf16"
)

const keyEvent = 0x0001

// inputRecord mirrors the Windows INPUT_RECORD with the KEY_EVENT_RECORD arm
// of the union.
type inputRecord struct {
	eventType   uint16
	_           uint16
	keyDown     int32
	repeatCount uint16
	virtualKey  uint16
	scanCode    uint16
	unicodeChar uint16
	controlKeys uint32
}

// appendKeyUnits queues the UTF-16 units a console event types. Only key
// presses carrying a character count; a repeat count of 0 still types once.
func appendKeyUnits(pending []uint16, rec inputRecord) []uint16 {
	if rec.eventType != keyEvent || rec.keyDown == 0 || rec.unicodeChar == 0 {
		return pending
	}
	for range max(int(rec.repeatCount), 1) {
		pending = append(pending, rec.unicodeChar)
	}
	return pending
}

// nextUnit takes one character off the front of pending. A high surrogate
// that is the last queued unit waits for its partner, so ok is false until
// the low half arrives. Unpaired surrogates come out as U+FFFD.
func nextUnit(pending []uint16) (r rune, rest []uint16, ok bool) {
	if len(pending) == 0 {
		return 0, pending, false
	}
	u := rune(pending[0])
	if !utf16.IsSurrogate(u) {
		return u, pending[1:], true
	}
	if u < 0xdc00 {
		if len(pending) == 1 {
			return 0, pending, false
		}
		if r := utf16.DecodeRune(u, rune(pending[1])); r != unicode.ReplacementChar {
			return r, pending[2:], true
		}
	}
	return unicode.ReplacementChar, pending[1:], true
}
