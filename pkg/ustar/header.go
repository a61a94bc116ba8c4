// Package ustar decodes the fixed 512-byte USTAR header block and the PAX
// extended header records that may precede an entry.
//
// Decoding never reads outside the block it is given and never relies on a
// field being NUL terminated.
package ustar

import (
	"bytes"

	"github.com/pkg/errors"
)

// BlockSize is the unit of every header, padding and footer in an archive.
const BlockSize = 512

// Header field layout.
const (
	nameOffset     = 0
	nameLength     = 100
	sizeOffset     = 124
	sizeLength     = 12
	typeflagOffset = 156
	linkOffset     = 157
	linkLength     = 100
	magicOffset    = 257
	prefixOffset   = 345
	prefixLength   = 155
)

// Magic is the USTAR magic including its trailing NUL.
const Magic = "ustar\x00"

var (
	// ErrBadMagic is returned when a block does not carry the USTAR magic.
	ErrBadMagic = errors.New("ustar: bad magic")
	// ErrUnknownType is returned for a type flag this decoder does not know.
	ErrUnknownType = errors.New("ustar: unknown type flag")
	// ErrHeaderParsing is returned for malformed fields and records.
	ErrHeaderParsing = errors.New("ustar: malformed header")
)

// Kind is the decoded entry type.
type Kind int

const (
	KindRegular Kind = iota
	KindHardLink
	KindSymlink
	KindDirectory
	KindExtended
)

func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindHardLink:
		return "hardlink"
	case KindSymlink:
		return "symlink"
	case KindDirectory:
		return "directory"
	case KindExtended:
		return "extended"
	default:
		return "unknown"
	}
}

// Header is one decoded header block.
type Header struct {
	Name     string
	Prefix   string
	Linkname string // set for hard and symbolic links
	Size     int64
	Typeflag byte
	Kind     Kind
}

// ParseHeader decodes a single header block. block must be exactly
// BlockSize bytes long.
func ParseHeader(block []byte) (*Header, error) {
	if len(block) != BlockSize {
		return nil, errors.Wrapf(ErrHeaderParsing, "header block is %d bytes", len(block))
	}
	if !bytes.Equal(block[magicOffset:magicOffset+len(Magic)], []byte(Magic)) {
		return nil, ErrBadMagic
	}

	var (
		h   Header
		err error
	)
	if h.Name, err = fieldString(block[nameOffset : nameOffset+nameLength]); err != nil {
		return nil, errors.Wrap(err, "name")
	}
	if h.Size, err = parseNumeric(block[sizeOffset : sizeOffset+sizeLength]); err != nil {
		return nil, errors.Wrap(err, "size")
	}
	h.Typeflag = block[typeflagOffset]
	switch h.Typeflag {
	// Some producers write a NUL type flag for plain files.
	case 0, '0':
		h.Kind = KindRegular
	case '1':
		h.Kind = KindHardLink
	case '2':
		h.Kind = KindSymlink
	case '5':
		h.Kind = KindDirectory
	case 'x', 'X':
		h.Kind = KindExtended
	default:
		return nil, errors.Wrapf(ErrUnknownType, "type flag %q", h.Typeflag)
	}
	if h.Kind == KindHardLink || h.Kind == KindSymlink {
		if h.Linkname, err = fieldString(block[linkOffset : linkOffset+linkLength]); err != nil {
			return nil, errors.Wrap(err, "linkname")
		}
	}
	if h.Prefix, err = fieldString(block[prefixOffset : prefixOffset+prefixLength]); err != nil {
		return nil, errors.Wrap(err, "prefix")
	}
	return &h, nil
}

// Padding is the number of bytes following the content that complete its
// last block.
func (h *Header) Padding() int64 {
	return (BlockSize - h.Size%BlockSize) % BlockSize
}

// ExtendedBlocks is the number of blocks the content occupies, which for an
// extended header is the number of PAX record blocks that follow it.
func (h *Header) ExtendedBlocks() int64 {
	return (h.Size + BlockSize - 1) / BlockSize
}

// Path joins the prefix and name fields.
func (h *Header) Path() string {
	if h.Prefix == "" {
		return h.Name
	}
	return h.Prefix + "/" + h.Name
}

// EffectivePath is the path an entry is extracted to: the PAX override when
// one is pending, the header path otherwise.
func EffectivePath(h *Header, override string) string {
	if override != "" {
		return override
	}
	return h.Path()
}

// IsZeroBlock reports whether block is an end-of-archive marker.
func IsZeroBlock(block []byte) bool {
	for _, c := range block {
		if c != 0 {
			return false
		}
	}
	return true
}
