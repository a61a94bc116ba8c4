package core

import (
	"io"
	"sync"
)

// Sink receives the content of one extracted file.
type Sink interface {
	// TryWrite accepts a prefix of p without blocking and returns its
	// length. It returns 0, nil when no bytes can be accepted right now.
	TryWrite(p []byte) (int, error)
	// Ready receives a value whenever the sink may accept more bytes.
	Ready() <-chan struct{}
	// Close flushes accepted bytes and releases the sink.
	Close() error
}

// WriterSink adapts a blocking io.WriteCloser. Accepted bytes are copied into
// a queue of at most depth chunks that a single goroutine writes out in order.
type WriterSink struct {
	w         io.WriteCloser
	chunkSize int

	queue   chan []byte
	ready   chan struct{}
	drained chan struct{}
	once    sync.Once

	mu  sync.Mutex
	err error
}

// NewWriterSink starts draining into w.
func NewWriterSink(w io.WriteCloser, depth, chunkSize int) *WriterSink {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	s := &WriterSink{
		w:         w,
		chunkSize: chunkSize,
		queue:     make(chan []byte, depth),
		ready:     make(chan struct{}, 1),
		drained:   make(chan struct{}),
	}
	go s.drain()
	return s
}

func (s *WriterSink) drain() {
	defer close(s.drained)
	for buf := range s.queue {
		if s.getErr() == nil {
			if _, err := s.w.Write(buf); err != nil {
				s.setErr(err)
			}
		}
		select {
		case s.ready <- struct{}{}:
		default:
		}
	}
}

func (s *WriterSink) getErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *WriterSink) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *WriterSink) TryWrite(p []byte) (int, error) {
	if err := s.getErr(); err != nil {
		return 0, err
	}
	if len(p) > s.chunkSize {
		p = p[:s.chunkSize]
	}
	buf := append([]byte(nil), p...)
	select {
	case s.queue <- buf:
		return len(buf), nil
	default:
		return 0, nil
	}
}

func (s *WriterSink) Ready() <-chan struct{} {
	return s.ready
}

// Close waits for queued chunks to be written, then closes the writer. It
// returns the first write or close error.
func (s *WriterSink) Close() error {
	err := errSinkClosed
	s.once.Do(func() {
		close(s.queue)
		<-s.drained
		cerr := s.w.Close()
		s.setErr(cerr)
		err = s.getErr()
	})
	return err
}
