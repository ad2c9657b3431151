// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hal

import (
	"fmt"
	"io"
	"sync"

	serial "github.com/jacobsa/go-serial/serial"
)

// OpenSerial opens a UART at 8N1 with the given baud rate.
func OpenSerial(port string, baud int) (io.ReadWriteCloser, error) {
	opts := serial.OpenOptions{
		PortName:              port,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	rwc, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("serial open %s at %d baud: %w", port, baud, err)
	}
	return rwc, nil
}

// ByteStream turns a blocking reader into a receive FIFO that can be drained
// without blocking, the way firmware reads a UART buffer.
type ByteStream struct {
	src    io.ReadCloser
	chunks chan []byte

	mu  sync.Mutex
	err error
}

// streamDepth bounds the FIFO; when full the reader goroutine waits, which
// lets the OS buffer absorb the backlog.
const streamDepth = 64

// NewByteStream starts reading src in the background.
func NewByteStream(src io.ReadCloser) *ByteStream {
	s := &ByteStream{src: src, chunks: make(chan []byte, streamDepth)}
	go s.pump()
	return s
}

func (s *ByteStream) pump() {
	defer close(s.chunks)
	buf := make([]byte, 256)
	for {
		n, err := s.src.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.chunks <- chunk
		}
		if err != nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			return
		}
	}
}

// Drain appends every byte received so far to dst and returns it.
func (s *ByteStream) Drain(dst []byte) []byte {
	for {
		select {
		case chunk, ok := <-s.chunks:
			if !ok {
				return dst
			}
			dst = append(dst, chunk...)
		default:
			return dst
		}
	}
}

// Err returns the error that stopped the reader, if any.
func (s *ByteStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *ByteStream) Close() error {
	return s.src.Close()
}
