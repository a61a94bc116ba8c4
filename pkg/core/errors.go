package core

import (
	"github.com/ntnmrndn/tarte/pkg/ustar"
	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedType is returned for entries that are recognized but not
	// extracted, such as hard and symbolic links.
	ErrUnsupportedType = errors.New("unsupported entry type")
	// ErrArchiveTooSmall is returned when the source ends before a single
	// header or footer was read.
	ErrArchiveTooSmall = errors.New("archive too small")
	// ErrTruncated is returned when the source ends in the middle of an entry.
	ErrTruncated = errors.New("archive truncated")
	// ErrOpenSink is returned when a destination file cannot be created.
	ErrOpenSink = errors.New("could not open output file")
	// ErrWrite is returned when writing or closing a destination file fails.
	ErrWrite = errors.New("error writing output file")
	// ErrSource is returned when reading the archive fails.
	ErrSource = errors.New("error reading archive")

	errSinkClosed = errors.New("sink already closed")
)

// IsFormatError reports whether err was caused by malformed or unsupported
// archive content, as opposed to an I/O failure.
func IsFormatError(err error) bool {
	return errors.Is(err, ustar.ErrBadMagic) ||
		errors.Is(err, ustar.ErrUnknownType) ||
		errors.Is(err, ustar.ErrHeaderParsing) ||
		errors.Is(err, ErrUnsupportedType)
}

// wrapErr attaches sentinel to cause so that both match errors.Is.
type wrapErr struct {
	sentinel error
	cause    error
	msg      string
}

func (e *wrapErr) Error() string {
	return e.msg + ": " + e.sentinel.Error() + ": " + e.cause.Error()
}

func (e *wrapErr) Is(target error) bool { return target == e.sentinel }

func (e *wrapErr) Unwrap() error { return e.cause }

func (e *wrapErr) Cause() error { return e.cause }

func withSentinel(sentinel, cause error, msg string) error {
	return &wrapErr{sentinel: sentinel, cause: cause, msg: msg}
}
