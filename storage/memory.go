package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Memory is an Opener over named in-memory files.
type Memory struct {
	files map[string]*MemoryFile
}

func NewMemory() *Memory {
	return &Memory{files: make(map[string]*MemoryFile)}
}

// Create adds or replaces a file holding a copy of data.
func (m *Memory) Create(name string, data []byte) *MemoryFile {
	f := &MemoryFile{data: append([]byte(nil), data...)}
	m.files[name] = f
	return f
}

// File returns the named file.
func (m *Memory) File(name string) (*MemoryFile, bool) {
	f, ok := m.files[name]
	return f, ok
}

func (m *Memory) OpenRead(name string) (Source, error) {
	f, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, os.ErrNotExist)
	}
	return &memoryHandle{file: f}, nil
}

// OpenWrite truncates an existing file, keeping its probes and injected
// failures, or creates a new one.
func (m *Memory) OpenWrite(name string) (Sink, error) {
	f, ok := m.files[name]
	if !ok {
		f = &MemoryFile{}
		m.files[name] = f
	}
	f.data = f.data[:0]
	return &memoryHandle{file: f}, nil
}

// MemoryFile is the backing store of a memory resource. The exported
// counters record the I/O issued against it and the Fail fields, when set,
// are returned by the matching operation.
type MemoryFile struct {
	data []byte

	Reads     int
	BytesRead int
	Seeks     int
	Writes    int
	Flushes   int
	Closes    int

	FailRead  error
	FailSeek  error
	FailWrite error
	FailFlush error
	FailClose error
}

// Bytes returns the current contents.
func (f *MemoryFile) Bytes() []byte {
	return f.data
}

func (f *MemoryFile) Len() int {
	return len(f.data)
}

type memoryHandle struct {
	file   *MemoryFile
	pos    int64
	closed bool
}

func (h *memoryHandle) Read(p []byte) (int, error) {
	if h.closed {
		return 0, os.ErrClosed
	}
	h.file.Reads++
	if h.file.FailRead != nil {
		return 0, h.file.FailRead
	}
	if len(p) == 0 {
		return 0, nil
	}
	if h.pos >= int64(len(h.file.data)) {
		return 0, io.EOF
	}

	n := copy(p, h.file.data[h.pos:])
	h.pos += int64(n)
	h.file.BytesRead += n
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (h *memoryHandle) Write(p []byte) (int, error) {
	if h.closed {
		return 0, os.ErrClosed
	}
	h.file.Writes++
	if h.file.FailWrite != nil {
		return 0, h.file.FailWrite
	}

	// Writing past the end zero fills the gap
	end := h.pos + int64(len(p))
	if grow := end - int64(len(h.file.data)); grow > 0 {
		h.file.data = append(h.file.data, make([]byte, grow)...)
	}

	n := copy(h.file.data[h.pos:end], p)
	h.pos += int64(n)
	return n, nil
}

func (h *memoryHandle) Seek(offset int64, whence int) (int64, error) {
	if h.closed {
		return 0, os.ErrClosed
	}
	h.file.Seeks++
	if h.file.FailSeek != nil {
		return 0, h.file.FailSeek
	}

	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = h.pos + offset
	case io.SeekEnd:
		abs = int64(len(h.file.data)) + offset
	default:
		return 0, errors.New("memory: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("memory: negative position")
	}
	h.pos = abs
	return abs, nil
}

func (h *memoryHandle) Flush() error {
	if h.closed {
		return os.ErrClosed
	}
	h.file.Flushes++
	return h.file.FailFlush
}

func (h *memoryHandle) Close() error {
	if h.closed {
		return os.ErrClosed
	}
	h.file.Closes++
	h.closed = true
	return h.file.FailClose
}

var (
	_ Opener = (*Memory)(nil)
	_ Source = (*memoryHandle)(nil)
	_ Sink   = (*memoryHandle)(nil)
)
