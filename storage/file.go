package storage

import (
	"bufio"
	"errors"
	"os"
)

// OS opens resources as files on the local filesystem.
var OS Opener = osOpener{}

type osOpener struct{}

// OpenRead opens the file at path read-only.
func (osOpener) OpenRead(path string) (Source, error) {
	return os.Open(path)
}

// OpenWrite creates or truncates the file at path.
// The returned sink owns the file.
func (osOpener) OpenWrite(path string) (Sink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &FileSink{
		file: file,
		buf:  bufio.NewWriter(file),
	}, nil
}

// FileSink is a buffered write handle over an *os.File.
type FileSink struct {
	file *os.File
	buf  *bufio.Writer
}

// NewFileSink wraps an already opened file. The sink takes ownership of it.
func NewFileSink(file *os.File) *FileSink {
	return &FileSink{file: file, buf: bufio.NewWriter(file)}
}

func (s *FileSink) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

// Seek flushes pending writes before moving the file offset.
func (s *FileSink) Seek(offset int64, whence int) (int64, error) {
	if err := s.buf.Flush(); err != nil {
		return 0, err
	}
	return s.file.Seek(offset, whence)
}

// Flush writes out buffered bytes and syncs the file.
func (s *FileSink) Flush() error {
	if err := s.buf.Flush(); err != nil {
		return err
	}
	return s.file.Sync()
}

func (s *FileSink) Close() error {
	flushErr := s.buf.Flush()
	closeErr := s.file.Close()
	return errors.Join(flushErr, closeErr)
}

var (
	_ Sink   = (*FileSink)(nil)
	_ Source = (*os.File)(nil)
)
