package core

import (
	"context"

	"github.com/containerd/log"
	"github.com/ntnmrndn/tarte/pkg/ustar"
	"github.com/pkg/errors"
)

type state int

const (
	readingHeader state = iota
	readingExtended
	readingFileContent
	readingPadding
	finished
)

func (s state) String() string {
	switch s {
	case readingHeader:
		return "header"
	case readingExtended:
		return "extended header"
	case readingFileContent:
		return "file content"
	case readingPadding:
		return "padding"
	case finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Machine turns archive bytes into filesystem operations. It accepts buffers
// of any size and alignment and keeps whatever it needs across calls, except
// for partial header blocks, which the caller must present again.
//
// A Machine is not safe for concurrent use.
type Machine struct {
	target Target

	state state
	// remaining counts content or padding bytes in the file states and
	// blocks in readingExtended.
	remaining int64
	path      string
	padding   int64
	sink      Sink

	pendingPath string
	sawHeader   bool
	err         error
}

// NewMachine returns a machine positioned at the first header.
func NewMachine(target Target) *Machine {
	return &Machine{target: target}
}

// Consume applies as much of p as it can and returns the number of bytes
// used. A short count means either that a header block is incomplete, in
// which case the unused bytes must be presented again followed by more data,
// or that the current file's sink is not ready.
//
// Any error is final: the machine stops and returns it from every later call.
func (m *Machine) Consume(ctx context.Context, p []byte) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	consumed := 0
	for consumed < len(p) {
		n, err := m.step(ctx, p[consumed:])
		if err != nil {
			m.err = err
			m.Abort()
			return consumed, err
		}
		if n == 0 {
			break
		}
		consumed += n
	}
	return consumed, nil
}

func (m *Machine) step(ctx context.Context, p []byte) (int, error) {
	switch m.state {
	case readingHeader:
		if len(p) < ustar.BlockSize {
			return 0, nil
		}
		return ustar.BlockSize, m.handleHeader(ctx, p[:ustar.BlockSize])
	case readingExtended:
		if len(p) < ustar.BlockSize {
			return 0, nil
		}
		ext, err := ustar.ParseExtendedHeader(p[:ustar.BlockSize])
		if err != nil {
			return 0, errors.Wrap(err, "extended header")
		}
		if ext.Path != "" {
			m.pendingPath = ext.Path
		}
		m.remaining--
		if m.remaining == 0 {
			m.state = readingHeader
		}
		return ustar.BlockSize, nil
	case readingFileContent:
		return m.writeContent(ctx, p)
	case readingPadding:
		n := int64(len(p))
		if n > m.remaining {
			n = m.remaining
		}
		m.remaining -= n
		if m.remaining == 0 {
			m.state = readingHeader
		}
		return int(n), nil
	case finished:
		return len(p), nil
	}
	return 0, errors.Errorf("invalid state %d", m.state)
}

func (m *Machine) handleHeader(ctx context.Context, block []byte) error {
	if ustar.IsZeroBlock(block) {
		log.G(ctx).Debug("end of archive")
		m.state = finished
		return nil
	}
	hdr, err := ustar.ParseHeader(block)
	if err != nil {
		return err
	}
	m.sawHeader = true

	if hdr.Kind == ustar.KindExtended {
		m.pendingPath = ""
		m.remaining = hdr.ExtendedBlocks()
		if m.remaining > 0 {
			m.state = readingExtended
		}
		return nil
	}

	path := ustar.EffectivePath(hdr, m.pendingPath)
	m.pendingPath = ""
	logger := log.G(ctx).WithFields(log.Fields{
		"path": path,
		"type": hdr.Kind,
		"size": hdr.Size,
	})

	switch hdr.Kind {
	case ustar.KindDirectory:
		logger.Debug("creating directory")
		return m.target.CreateDir(path)
	case ustar.KindRegular:
		logger.Debug("extracting file")
		if hdr.Size == 0 {
			return m.target.CreateEmptyFile(path)
		}
		sink, err := m.target.OpenFile(path)
		if err != nil {
			return err
		}
		m.state = readingFileContent
		m.sink = sink
		m.path = path
		m.remaining = hdr.Size
		m.padding = hdr.Padding()
		return nil
	default:
		return errors.Wrapf(ErrUnsupportedType, "%s %s -> %s", hdr.Kind, path, hdr.Linkname)
	}
}

func (m *Machine) writeContent(ctx context.Context, p []byte) (int, error) {
	if int64(len(p)) > m.remaining {
		p = p[:m.remaining]
	}
	n, err := m.sink.TryWrite(p)
	if err != nil {
		return 0, withSentinel(ErrWrite, err, "write "+m.path)
	}
	m.remaining -= int64(n)
	if m.remaining > 0 {
		return n, nil
	}

	sink := m.sink
	m.sink = nil
	if err := sink.Close(); err != nil {
		return n, withSentinel(ErrWrite, err, "close "+m.path)
	}
	log.G(ctx).WithField("path", m.path).Debug("file extracted")
	m.state = readingPadding
	m.remaining = m.padding
	if m.remaining == 0 {
		m.state = readingHeader
	}
	return n, nil
}

// Finished reports whether the end-of-archive block was reached.
func (m *Machine) Finished() bool {
	return m.state == finished
}

// SawHeader reports whether at least one valid header was decoded.
func (m *Machine) SawHeader() bool {
	return m.sawHeader
}

// Idle reports whether the machine sits between entries, waiting for the
// next header.
func (m *Machine) Idle() bool {
	return m.state == readingHeader && m.pendingPath == ""
}

// Sink returns the sink of the file being written, or nil.
func (m *Machine) Sink() Sink {
	return m.sink
}

// Abort closes the open sink, if any. Content already written stays in place.
func (m *Machine) Abort() {
	if m.sink != nil {
		m.sink.Close()
		m.sink = nil
	}
}
