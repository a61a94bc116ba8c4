package core

import (
	"io"
	"sync"
)

// Source is a byte source that never blocks the extraction loop.
type Source interface {
	// Read copies bytes that are already available into p. It returns 0, nil
	// when nothing is available yet and io.EOF once the source is exhausted.
	Read(p []byte) (int, error)
	// Ready receives a value whenever more bytes may have become available.
	Ready() <-chan struct{}
}

type chunk struct {
	data []byte
	err  error
}

// ReaderSource adapts a blocking io.Reader. A pump goroutine reads ahead at
// most one chunk, so the reader is never drained faster than it is consumed.
type ReaderSource struct {
	r         io.Reader
	chunkSize int

	chunks chan chunk
	ready  chan struct{}
	done   chan struct{}
	once   sync.Once

	pending []byte
	err     error
}

// NewReaderSource starts pumping r in chunks of chunkSize bytes. Close must be
// called to release the pump if the source is abandoned before io.EOF.
func NewReaderSource(r io.Reader, chunkSize int) *ReaderSource {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	s := &ReaderSource{
		r:         r,
		chunkSize: chunkSize,
		chunks:    make(chan chunk, 1),
		ready:     make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *ReaderSource) pump() {
	defer s.signal()
	defer close(s.chunks)
	for {
		buf := make([]byte, s.chunkSize)
		n, err := s.r.Read(buf)
		if n == 0 && err == nil {
			continue
		}
		select {
		case s.chunks <- chunk{data: buf[:n], err: err}:
		case <-s.done:
			return
		}
		s.signal()
		if err != nil {
			return
		}
	}
}

func (s *ReaderSource) signal() {
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

func (s *ReaderSource) Read(p []byte) (int, error) {
	if len(s.pending) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		select {
		case c, ok := <-s.chunks:
			if !ok {
				s.err = io.EOF
				return 0, s.err
			}
			s.pending, s.err = c.data, c.err
			if len(s.pending) == 0 {
				return 0, s.err
			}
		default:
			return 0, nil
		}
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *ReaderSource) Ready() <-chan struct{} {
	return s.ready
}

// Close stops the pump. The pump may still be blocked in a Read of the
// underlying reader; it exits once that returns.
func (s *ReaderSource) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
