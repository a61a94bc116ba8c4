package core

import (
	"context"
	"io"

	"github.com/containerd/log"
	"github.com/moby/sys/sequential"
	"github.com/pkg/errors"
)

// Extract reads a tar archive from src and materializes it below dest.
func Extract(ctx context.Context, src Source, dest string, opts *Options) error {
	return ExtractTarget(ctx, src, NewDirTarget(dest, opts), opts)
}

// ExtractAsync runs Extract on its own goroutine. The returned channel
// receives exactly one result and is then closed. Callers that lose interest
// may drop the channel; files extracted so far stay in place.
func ExtractAsync(ctx context.Context, src Source, dest string, opts *Options) <-chan error {
	result := make(chan error, 1)
	go func() {
		defer close(result)
		result <- Extract(ctx, src, dest, opts)
	}()
	return result
}

// ExtractReader extracts an archive read from a blocking reader.
func ExtractReader(ctx context.Context, r io.Reader, dest string, opts *Options) error {
	o := opts.withDefaults()
	if o.Progress != nil {
		r = o.Progress.Reader(r)
		// The reader already counts; don't count twice.
		o.Progress = nil
	}
	src := NewReaderSource(r, o.ChunkSize)
	defer src.Close()
	return Extract(ctx, src, dest, &o)
}

// ExtractFile extracts the archive stored at archivePath.
func ExtractFile(ctx context.Context, archivePath, dest string, opts *Options) error {
	f, err := sequential.Open(archivePath)
	if err != nil {
		return withSentinel(ErrSource, err, "open "+archivePath)
	}
	defer f.Close()
	return ExtractReader(ctx, f, dest, opts)
}

// ExtractTarget drives a Machine over src until the archive ends or fails.
//
// Bytes are read into a fixed window. Whatever the machine does not consume
// is moved to the front of the window so that a header split across reads is
// completed in place. When neither the source nor the current file sink can
// make progress, the loop waits for either to signal readiness.
func ExtractTarget(ctx context.Context, src Source, target Target, opts *Options) (retErr error) {
	o := opts.withDefaults()
	m := NewMachine(target)
	defer m.Abort()
	defer func() {
		if retErr != nil {
			log.G(ctx).WithError(retErr).Debug("extraction failed")
		}
	}()

	buf := make([]byte, o.BufferSize)
	var (
		off int
		eof bool
	)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		progressed := false
		if !eof && off < len(buf) {
			n, err := src.Read(buf[off:])
			if err != nil && err != io.EOF {
				return withSentinel(ErrSource, err, "read")
			}
			eof = err == io.EOF
			off += n
			progressed = n > 0
		}

		if off > 0 {
			n, err := m.Consume(ctx, buf[:off])
			if err != nil {
				return err
			}
			if n > 0 {
				off = copy(buf, buf[n:off])
				progressed = true
				o.Progress.Add(uint64(n))
			}
		}

		if eof {
			switch {
			case m.Finished() && off == 0:
				log.G(ctx).Debug("extraction complete")
				return nil
			case progressed:
				continue
			case m.Sink() != nil && off > 0:
				// Content is waiting on the sink.
			case !m.SawHeader() && !m.Finished():
				return ErrArchiveTooSmall
			case m.Idle() && off == 0:
				log.G(ctx).Debug("archive ended without footer")
				return nil
			default:
				return errors.Wrapf(ErrTruncated, "archive ended while reading %s", m.state)
			}
		} else if progressed {
			continue
		}

		var srcReady, sinkReady <-chan struct{}
		if !eof && off < len(buf) {
			srcReady = src.Ready()
		}
		if sink := m.Sink(); sink != nil {
			sinkReady = sink.Ready()
		}
		select {
		case <-srcReady:
		case <-sinkReady:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
