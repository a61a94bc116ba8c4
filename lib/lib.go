// Package lib provides the extraction entry points of tarte.
// This package re-exports the functionality from the core package so that
// callers do not depend on its layout.
package lib

import (
	"context"
	"io"

	"github.com/ntnmrndn/tarte/pkg/core"
	"github.com/ntnmrndn/tarte/pkg/progress"
	"github.com/ntnmrndn/tarte/pkg/ustar"
)

// Constants re-exported from ustar and core
const (
	BlockSize         = ustar.BlockSize
	DefaultBufferSize = core.DefaultBufferSize
)

// Options re-exported from core
type Options = core.Options

// Source, Sink and Target re-exported from core
type (
	Source = core.Source
	Sink   = core.Sink
	Target = core.Target
)

// Errors callers can branch on with errors.Is.
var (
	ErrBadMagic        = ustar.ErrBadMagic
	ErrUnknownType     = ustar.ErrUnknownType
	ErrHeaderParsing   = ustar.ErrHeaderParsing
	ErrUnsupportedType = core.ErrUnsupportedType
	ErrArchiveTooSmall = core.ErrArchiveTooSmall
	ErrTruncated       = core.ErrTruncated
	ErrOpenSink        = core.ErrOpenSink
	ErrWrite           = core.ErrWrite
	ErrSource          = core.ErrSource
)

// IsFormatError is a wrapper around core.IsFormatError
func IsFormatError(err error) bool {
	return core.IsFormatError(err)
}

// NewProgress returns a progress tracker for an archive of total bytes.
func NewProgress(total uint64) *progress.Tracker {
	return progress.New(total)
}

// Extract is a wrapper around core.Extract
func Extract(ctx context.Context, src Source, dest string, opts *Options) error {
	return core.Extract(ctx, src, dest, opts)
}

// ExtractAsync is a wrapper around core.ExtractAsync
func ExtractAsync(ctx context.Context, src Source, dest string, opts *Options) <-chan error {
	return core.ExtractAsync(ctx, src, dest, opts)
}

// ExtractReader is a wrapper around core.ExtractReader
func ExtractReader(ctx context.Context, r io.Reader, dest string, opts *Options) error {
	return core.ExtractReader(ctx, r, dest, opts)
}

// ExtractFile is a wrapper around core.ExtractFile
func ExtractFile(ctx context.Context, archivePath, dest string, opts *Options) error {
	return core.ExtractFile(ctx, archivePath, dest, opts)
}
