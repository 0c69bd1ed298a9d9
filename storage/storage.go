// Package storage provides the byte-addressable resources that serial
// readers and writers sit on top of.
package storage

import (
	"io"
)

// Source is a read handle. A read that reaches the end of the data reports
// io.EOF, possibly together with the final bytes. Any other error is an I/O
// failure.
type Source interface {
	io.Reader
	io.Seeker
	io.Closer
}

// Sink is a write handle. Writes may be buffered until Flush, Seek or Close.
type Sink interface {
	io.Writer
	io.Seeker
	io.Closer
	Flush() error
}

// Opener opens named resources for reading or writing.
type Opener interface {
	OpenRead(name string) (Source, error)
	OpenWrite(name string) (Sink, error)
}
