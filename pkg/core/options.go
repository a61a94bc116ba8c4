package core

import (
	"github.com/ntnmrndn/tarte/pkg/progress"
	"github.com/ntnmrndn/tarte/pkg/ustar"
)

const (
	DefaultBufferSize = 4096
	DefaultChunkSize  = 32 * 1024
	DefaultQueueDepth = 4
)

// Options tunes an extraction. The zero value and nil both mean defaults.
type Options struct {
	// BufferSize is the size of the window the state machine consumes from.
	// It is raised to ustar.BlockSize when smaller.
	BufferSize int
	// ChunkSize is the read size of sources created by ExtractReader and
	// ExtractFile, and the largest chunk a file sink accepts at once.
	ChunkSize int
	// QueueDepth is the number of chunks a file sink holds before it
	// reports backpressure.
	QueueDepth int
	// Progress, if set, is fed the number of archive bytes consumed.
	Progress *progress.Tracker
}

func (o *Options) withDefaults() Options {
	var opts Options
	if o != nil {
		opts = *o
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.BufferSize < ustar.BlockSize {
		opts.BufferSize = ustar.BlockSize
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = DefaultQueueDepth
	}
	return opts
}
