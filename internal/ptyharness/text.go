package ptyharness

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// PlainText drops escape sequences and control bytes from terminal output,
// keeping line feeds.
func PlainText(out []byte) string {
	var b strings.Builder
	for i := 0; i < len(out); {
		switch c := out[i]; {
		case c == 0x1b:
			i = skipANSIEscape(out, i)
			continue
		case c == '\n':
			b.WriteByte(c)
		case c < 0x20 || c == 0x7f:
		default:
			b.WriteByte(c)
		}
		i++
	}
	return b.String()
}

// Line renders terminal output and returns the last line holding text.
// Only the line-editing subset is interpreted: CR, LF, BS and the CSI
// cursor-left, column and erase-in-line sequences.
func Line(out []byte) string {
	var lines [][]rune
	var cur []rune
	col := 0
	for i := 0; i < len(out); {
		c := out[i]
		switch {
		case c == 0x1b:
			if i+1 < len(out) && out[i+1] == '[' {
				consumed, final, params, ok := parseCSISequence(out[i:])
				if ok {
					cur, col = applyCSI(cur, col, final, params)
					i += consumed
					continue
				}
			}
			i = skipANSIEscape(out, i)
			continue
		case c == '\n':
			lines = append(lines, cur)
			cur, col = nil, 0
		case c == '\r':
			col = 0
		case c == '\b':
			if col > 0 {
				col--
			}
		case c < 0x20 || c == 0x7f:
		default:
			r := rune(c)
			size := 1
			if c >= 0x80 {
				r, size = utf8.DecodeRune(out[i:])
			}
			for len(cur) <= col {
				cur = append(cur, ' ')
			}
			cur[col] = r
			col++
			i += size
			continue
		}
		i++
	}
	lines = append(lines, cur)
	for j := len(lines) - 1; j >= 0; j-- {
		if s := strings.TrimRight(string(lines[j]), " "); s != "" {
			return s
		}
	}
	return ""
}

func applyCSI(cur []rune, col int, final byte, params []int) ([]rune, int) {
	param := func(idx, defaultVal int) int {
		if idx >= len(params) || params[idx] == 0 {
			return defaultVal
		}
		return params[idx]
	}
	switch final {
	case 'D':
		col = max(col-param(0, 1), 0)
	case 'C':
		col += param(0, 1)
	case 'G':
		col = param(0, 1) - 1
	case 'K':
		switch param(0, 0) {
		case 0:
			if col < len(cur) {
				cur = cur[:col]
			}
		case 1:
			for j := 0; j <= col && j < len(cur); j++ {
				cur[j] = ' '
			}
		case 2:
			cur = nil
		}
	}
	return cur, col
}

func parseCSIParams(raw string) []int {
	raw = strings.TrimLeft(raw, "?=><!")
	if raw == "" {
		return []int{0}
	}
	parts := strings.Split(raw, ";")
	params := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			n = 0
		}
		params = append(params, n)
	}
	return params
}

func parseCSISequence(data []byte) (consumed int, final byte, params []int, complete bool) {
	if len(data) < 3 || data[0] != 0x1b || data[1] != '[' {
		return 0, 0, nil, false
	}
	for i := 2; i < len(data); i++ {
		if data[i] >= 0x40 && data[i] <= 0x7e {
			return i + 1, data[i], parseCSIParams(string(data[2:i])), true
		}
	}
	return 0, 0, nil, false
}

func skipANSIEscape(out []byte, i int) int {
	if i+1 >= len(out) {
		return i + 1
	}
	next := out[i+1]
	switch next {
	case '[': // CSI: ESC [ ... final byte 0x40-0x7e
		i += 2
		for i < len(out) && (out[i] < 0x40 || out[i] > 0x7e) {
			i++
		}
		if i < len(out) {
			i++
		}
		return i
	case ']': // OSC: ESC ] ... BEL or ESC \
		i += 2
		for i < len(out) {
			if out[i] == 0x07 {
				return i + 1
			}
			if out[i] == 0x1b && i+1 < len(out) && out[i+1] == '\\' {
				return i + 2
			}
			i++
		}
		return i
	case 'P', '^', '_': // DCS / PM / APC: ESC P ... ESC \
		i += 2
		for i < len(out) {
			if out[i] == 0x1b && i+1 < len(out) && out[i+1] == '\\' {
				return i + 2
			}
			i++
		}
		return i
	case '(', ')', '*', '+', '-', '.', '/', '%', '#':
		// Three-byte charset and extension sequences such as ESC ( B.
		if i+2 < len(out) {
			return i + 3
		}
		return len(out)
	default:
		return i + 2
	}
}
