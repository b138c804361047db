package core

import "strconv"

// String helpers for debug messages. strconv builds under TinyGo; fmt is
// kept out of core.

func itoa(n int) string {
	return strconv.Itoa(n)
}

// ftoa formats a float with two decimals
func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// quoteByte renders a command byte for messages: printable bytes as 'c',
// everything else as its decimal value
func quoteByte(b byte) string {
	if b >= 0x20 && b < 0x7f {
		return "'" + string(rune(b)) + "'"
	}
	return itoa(int(b))
}
