package lineedit

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"syscall"
)

type readResult struct {
	b   byte
	err error
}

// byteSource reads single bytes on a background goroutine, but only when
// asked to, so the terminal isn't read while a foreground job owns it.
type byteSource struct {
	in       io.Reader
	requests chan struct{}
	results  chan readResult
	pending  bool

	start sync.Once
	stop  sync.Once
}

func newByteSource(in io.Reader) *byteSource {
	return &byteSource{
		in:       in,
		requests: make(chan struct{}, 1),
		results:  make(chan readResult),
	}
}

// request asks for the next byte unless a request is already outstanding.
func (s *byteSource) request() {
	s.start.Do(func() {
		go s.loop()
	})
	if s.pending {
		return
	}
	s.pending = true
	s.requests <- struct{}{}
}

func (s *byteSource) loop() {
	buf := make([]byte, 1)
	for range s.requests {
		s.results <- s.read(buf)
	}
}

// read gets one byte, retrying reads interrupted by signals.
func (s *byteSource) read(buf []byte) readResult {
	for {
		n, err := s.in.Read(buf)
		switch {
		case n == 1:
			return readResult{b: buf[0]}
		case errors.Is(err, syscall.EINTR):
			continue
		case err != nil:
			return readResult{err: fmt.Errorf("%w: %v", ErrInput, err)}
		}
	}
}

func (s *byteSource) Close() {
	s.stop.Do(func() {
		close(s.requests)
	})
}
