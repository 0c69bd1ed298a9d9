package storage

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Mapped serves reads from a read-only memory mapping of the file.
// Writes go through OS.
var Mapped Opener = mappedOpener{}

type mappedOpener struct{}

func (mappedOpener) OpenRead(path string) (Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	st, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	// Zero length files cannot be mapped
	var data mmap.MMap
	if st.Size() > 0 {
		data, err = mmap.Map(file, mmap.RDONLY, 0)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("map %s: %w", path, err)
		}
	}

	return &MappedSource{file: file, data: data}, nil
}

func (mappedOpener) OpenWrite(path string) (Sink, error) {
	return OS.OpenWrite(path)
}

// MappedSource reads from a memory mapped file.
type MappedSource struct {
	file *os.File
	data mmap.MMap
	pos  int64
}

// Len returns the size of the mapping.
func (m *MappedSource) Len() int {
	return len(m.data)
}

func (m *MappedSource) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}

	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *MappedSource) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = m.pos + offset
	case io.SeekEnd:
		abs = int64(len(m.data)) + offset
	default:
		return 0, errors.New("mapped: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("mapped: negative position")
	}
	m.pos = abs
	return abs, nil
}

func (m *MappedSource) Close() error {
	if m.file == nil {
		return os.ErrClosed
	}

	var errs []error
	if m.data != nil {
		errs = append(errs, m.data.Unmap())
	}
	errs = append(errs, m.file.Close())

	m.data = nil
	m.file = nil
	return errors.Join(errs...)
}

var _ Source = (*MappedSource)(nil)
