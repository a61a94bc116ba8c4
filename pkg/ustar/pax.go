package ustar

import (
	"unicode/utf8"

	"github.com/pkg/errors"
)

const (
	paxPath = "path"

	// A block holds at most 512 bytes, so a record length never needs more
	// than three digits.
	paxLengthDigits = 3
)

// ExtendedHeader holds the PAX records this decoder honors.
type ExtendedHeader struct {
	// Path overrides the path of the next entry. Empty means no override.
	Path string
}

// ParseExtendedHeader scans the "<len> <keyword>=<value>\n" records of one
// extended header block.
//
// A record whose declared length runs past the block is an error. Any other
// malformed record ends the scan and the records decoded so far are kept.
func ParseExtendedHeader(block []byte) (*ExtendedHeader, error) {
	var ext ExtendedHeader
	for i := 0; i < len(block); {
		rec := block[i:]
		length := leadingDecimal(rec, paxLengthDigits)
		if length > len(rec) {
			return nil, errors.Wrapf(ErrHeaderParsing, "pax record of %d bytes at offset %d overruns block", length, i)
		}
		sp := indexBeforeNUL(rec, ' ')
		if sp < 0 {
			break
		}
		keyStart := sp + 1
		if keyStart >= len(rec) {
			break
		}
		eq := indexBeforeNUL(rec[keyStart:], '=')
		if eq < 0 {
			break
		}
		valueStart := keyStart + eq + 1
		// The declared length has to cover the keyword, the separator and
		// the trailing newline, which also rules out zero-length records.
		if valueStart >= len(rec) || length <= valueStart {
			break
		}
		if string(rec[keyStart:keyStart+eq]) == paxPath {
			value := rec[valueStart : length-1]
			if !utf8.Valid(value) {
				return nil, errors.Wrap(ErrHeaderParsing, "pax path is not valid UTF-8")
			}
			ext.Path = string(value)
		}
		i += length
	}
	return &ext, nil
}
