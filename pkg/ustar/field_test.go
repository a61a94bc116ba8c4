package ustar

import (
	"testing"

	"github.com/pkg/errors"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{in: "00000000003\x00", want: 3},
		{in: "00000001000\x00", want: 512},
		{in: "     1750 \x00\x00", want: 1000},
		{in: "\x00\x00\x00\x0012\x00\x00\x00\x00\x00\x00", want: 10},
		{in: "77777777777\x00", want: 8589934591},
		{in: "777777777777", want: 68719476735},
		{in: "\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00", want: 0},
		{in: "            ", want: 0},
		{in: "garbage\x00\x00\x00\x00\x00", want: 0},
		{in: "128\x00", want: 0o12},
		{in: "\x80\x00\x00\x00\x00\x00\x00\x00\x00\x00\x02\x00", want: 512},
		{in: "\x80\x00\x00\x00\x00\x01\x00\x00\x00\x00\x00\x00", want: 1 << 48},
	}
	for _, tc := range tests {
		got, err := parseNumeric([]byte(tc.in))
		assert.NilError(t, err, "input %q", tc.in)
		assert.Check(t, is.Equal(got, tc.want), "input %q", tc.in)
	}
}

func TestParseNumericRejects(t *testing.T) {
	for _, in := range []string{
		"\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff",
		"\x80\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff\xff",
		"7777777777777777777777777",
	} {
		_, err := parseNumeric([]byte(in))
		assert.Check(t, errors.Is(err, ErrHeaderParsing), "input %q", in)
	}
}

func TestFieldString(t *testing.T) {
	s, err := fieldString([]byte("abc\x00def"))
	assert.NilError(t, err)
	assert.Check(t, is.Equal(s, "abc"))

	s, err = fieldString([]byte("abcdef"))
	assert.NilError(t, err)
	assert.Check(t, is.Equal(s, "abcdef"))

	s, err = fieldString(nil)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(s, ""))

	// Bytes after the terminator are not decoded.
	s, err = fieldString([]byte("ok\x00\xff"))
	assert.NilError(t, err)
	assert.Check(t, is.Equal(s, "ok"))
}

func TestLeadingDecimal(t *testing.T) {
	assert.Check(t, is.Equal(leadingDecimal([]byte("30 path=x\n"), 3), 30))
	assert.Check(t, is.Equal(leadingDecimal([]byte("123456"), 3), 123))
	assert.Check(t, is.Equal(leadingDecimal([]byte("x12"), 3), 0))
	assert.Check(t, is.Equal(leadingDecimal([]byte("9"), 3), 9))
	assert.Check(t, is.Equal(leadingDecimal(nil, 3), 0))
}

func TestIndexBeforeNUL(t *testing.T) {
	assert.Check(t, is.Equal(indexBeforeNUL([]byte("12 path"), ' '), 2))
	assert.Check(t, is.Equal(indexBeforeNUL([]byte("12\x00 path"), ' '), -1))
	assert.Check(t, is.Equal(indexBeforeNUL([]byte("12path"), ' '), -1))
}
