package audio

import (
	"fmt"
	"io"
	"sync"
)

// Buffer is an unbounded byte pipe. Writes never block: data accumulates in
// memory until the reader catches up. Once the reader side is closed, further
// writes are accepted and discarded so a dead consumer cannot stall the producer.
type Buffer struct {
	writeNotify chan struct{}

	mu         sync.Mutex
	closeWrite bool
	closeRead  bool
	closeErr   error
	buf        []byte
}

// NewBuffer creates a Buffer with an initial capacity hint of n bytes
func NewBuffer(n int) *Buffer {
	return &Buffer{
		writeNotify: make(chan struct{}, 1),
		buf:         make([]byte, 0, n),
	}
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeRead {
		return len(p), nil
	}
	if b.closeWrite {
		return 0, fmt.Errorf("audio buffer: write after close: %w", io.ErrClosedPipe)
	}
	b.buf = append(b.buf, p...)
	b.notify()
	return len(p), nil
}

// Read blocks until data is available. It returns io.EOF after CloseWrite once
// the buffer is drained, or the error given to CloseWithError.
func (b *Buffer) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.buf) == 0 {
		if b.closeErr != nil {
			return 0, b.closeErr
		}
		if b.closeRead {
			return 0, io.ErrClosedPipe
		}
		if b.closeWrite {
			return 0, io.EOF
		}
		b.mu.Unlock()
		<-b.writeNotify
		b.mu.Lock()
	}
	n := copy(p, b.buf)
	b.buf = b.buf[n:]
	return n, nil
}

// Len reports the number of buffered, unread bytes
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// CloseWrite marks the end of input. Buffered data remains readable.
func (b *Buffer) CloseWrite() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeWrite = true
	b.notify()
	return nil
}

// CloseWithError ends input with err. Buffered data is still delivered first.
func (b *Buffer) CloseWithError(err error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		err = io.EOF
	}
	if b.closeErr == nil {
		b.closeErr = err
	}
	b.closeWrite = true
	b.notify()
	return nil
}

// Close is called by the reader when it stops consuming. Pending data is
// dropped and later writes are discarded.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeRead = true
	b.buf = nil
	b.notify()
	return nil
}

func (b *Buffer) notify() {
	select {
	case b.writeNotify <- struct{}{}:
	default:
	}
}
