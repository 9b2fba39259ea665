package timedinput

import (
	"slices"
	"strings"
)

// InputType selects the per-character rules of a read.
type InputType int

const (
	TypeText InputType = iota
	TypeInteger
	TypeFloat
	TypeSingle
)

func (t InputType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeSingle:
		return "single"
	default:
		return "unknown"
	}
}

const (
	keyBackspace = '\b'
	keyDelete    = 0x7f

	digits = "0123456789"
)

// keyAction is the outcome of feeding one character to a keyPolicy.
type keyAction int

const (
	actAppend keyAction = iota
	actDelete
	actReject
	actTerminate
)

func (a keyAction) String() string {
	switch a {
	case actAppend:
		return "append"
	case actDelete:
		return "delete"
	case actReject:
		return "reject"
	case actTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// keyPolicy decides what happens to each character of a read. Build it
// with newPolicy, which adds the characters the input type implies.
type keyPolicy struct {
	typ       InputType
	maxLength int
	allow     string
	end       string
}

// newPolicy adds the characters implied by the input type to allow.
func newPolicy(typ InputType, maxLength int, allow, end string) keyPolicy {
	switch typ {
	case TypeInteger:
		allow += digits
	case TypeFloat:
		allow += digits + ".,"
	}
	return keyPolicy{typ: typ, maxLength: maxLength, allow: allow, end: end}
}

func (p keyPolicy) numeric() bool {
	return p.typ == TypeInteger || p.typ == TypeFloat
}

// apply decides the action for r and returns the buffer after it. buf is
// never modified in place on reject or terminate.
func (p keyPolicy) apply(buf []rune, r rune) (keyAction, []rune) {
	if strings.ContainsRune(p.end, r) {
		return actTerminate, buf
	}
	if r == keyBackspace || r == keyDelete {
		if len(buf) == 0 {
			return actDelete, buf
		}
		return actDelete, buf[:len(buf)-1]
	}
	if p.allow != "" && !strings.ContainsRune(p.allow, r) {
		return actReject, buf
	}
	if r == '-' && p.numeric() && len(buf) > 0 {
		return actReject, buf
	}
	if p.maxLength > 0 && len(buf) >= p.maxLength {
		return actReject, buf
	}
	if p.typ == TypeFloat {
		if r == ',' {
			r = '.'
		}
		if r == '.' && slices.Contains(buf, '.') {
			return actReject, buf
		}
	}
	return actAppend, append(buf, r)
}

// complete reports whether a single-key read has its key.
func (p keyPolicy) complete(buf []rune) bool {
	return p.typ == TypeSingle && p.maxLength == 1 && len(buf) == 1
}
