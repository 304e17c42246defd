package llm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

// Stream is a lazy, single-use sequence of response fragments.
// Next returns io.EOF once the response is complete. A body that ends before
// the backend's end-of-response marker yields ErrBadResponse instead.
// Close may be called at any time to stop consuming the response.
type Stream interface {
	Next() (string, error)
	Close() error
}

// Collect drives s to exhaustion, passing every fragment to fn, and closes it.
// An error from fn stops consumption and is returned.
func Collect(s Stream, fn func(fragment string) error) (err error) {
	defer func() {
		if cerr := s.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	for {
		fragment, err := s.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(fragment); err != nil {
			return fmt.Errorf("callback error: %w", err)
		}
	}
}

// lineDecoder turns one line of a streaming body into a fragment.
// skip drops the line; done ends the stream after the fragment is delivered.
type lineDecoder func(line []byte) (fragment string, done, skip bool, err error)

const maxStreamLine = 1 << 20

// lineStream reads newline-delimited events from an HTTP body.
// Next is not safe for concurrent use; Close may race with a blocked Next.
type lineStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	decode  lineDecoder

	finished  bool
	completed bool
	closed    atomic.Bool
}

func newLineStream(body io.ReadCloser, decode lineDecoder) *lineStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)
	return &lineStream{
		body:    body,
		scanner: scanner,
		decode:  decode,
	}
}

func (s *lineStream) Next() (string, error) {
	if s.finished || s.closed.Load() {
		return "", io.EOF
	}

	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		fragment, done, skip, err := s.decode(line)
		if err != nil {
			s.finished = true
			return "", err
		}
		if done {
			s.finished = true
			s.completed = true
		}
		if skip || fragment == "" {
			if done {
				return "", io.EOF
			}
			continue
		}
		return fragment, nil
	}

	s.finished = true
	if s.closed.Load() {
		return "", io.EOF
	}
	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read stream: %w", err)
	}
	if !s.completed {
		return "", fmt.Errorf("%w: stream ended before completion", ErrBadResponse)
	}
	return "", io.EOF
}

func (s *lineStream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.body.Close()
}
