package ustar

import (
	"unicode/utf8"

	"github.com/pkg/errors"
)

// fieldString decodes a NUL-padded text field. Only bytes inside b are
// examined; a field filled to capacity without a terminator is used whole.
func fieldString(b []byte) (string, error) {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	if !utf8.Valid(b[:n]) {
		return "", errors.Wrap(ErrHeaderParsing, "field is not valid UTF-8")
	}
	return string(b[:n]), nil
}

// parseNumeric decodes a numeric header field, either GNU base-256 (high bit
// of the first byte set) or octal text.
func parseNumeric(b []byte) (int64, error) {
	if len(b) > 0 && b[0]&0x80 != 0 {
		return parseBase256(b)
	}
	return parseOctal(b)
}

func parseBase256(b []byte) (int64, error) {
	// Negative sizes are never valid.
	if b[0]&0x40 != 0 {
		return 0, errors.Wrap(ErrHeaderParsing, "negative base-256 number")
	}
	var x uint64
	for i, c := range b {
		if i == 0 {
			c &= 0x7f
		}
		if x>>55 != 0 {
			return 0, errors.Wrap(ErrHeaderParsing, "base-256 number overflows")
		}
		x = x<<8 | uint64(c)
	}
	return int64(x), nil
}

// parseOctal reads octal digits the way strtol does: leading spaces and NULs
// are skipped and reading stops at the first byte that is not an octal digit.
// A field without digits is 0.
func parseOctal(b []byte) (int64, error) {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == 0) {
		i++
	}
	var x int64
	for ; i < len(b); i++ {
		c := b[i]
		if c < '0' || c > '7' {
			break
		}
		if x > (1<<63-1)>>3 {
			return 0, errors.Wrap(ErrHeaderParsing, "octal number overflows")
		}
		x = x<<3 | int64(c-'0')
	}
	return x, nil
}

// leadingDecimal reads at most max leading decimal digits of b.
func leadingDecimal(b []byte, max int) int {
	if len(b) > max {
		b = b[:max]
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// indexBeforeNUL returns the index of the first c in b, or -1 if b holds
// no c before its first NUL byte.
func indexBeforeNUL(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
		if v == 0 {
			return -1
		}
	}
	return -1
}
