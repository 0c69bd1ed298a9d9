package serial

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/pickaxe/storage"
)

// Reader reads bytes from a resource one page at a time. The page currently
// in memory covers the stream range [pageBegin, pageEnd) and cursor is the
// read position within it, so the logical offset is always
// pageBegin + cursor. A Reader is not safe for concurrent use.
type Reader struct {
	src  storage.Source
	name string
	err  error

	targetPageSize uint64
	activePageSize uint64
	pageBegin      uint64
	pageEnd        uint64
	cursor         uint64
	eof            bool
	buf            []byte
	stats          Stats

	errs *ErrorSink
	log  logrus.FieldLogger
}

// Stats counts the I/O a Reader has issued.
type Stats struct {
	// Pages is the number of page refills.
	Pages uint64
	// Bytes is the total size of all refilled pages.
	Bytes uint64
	// Seeks is the number of seeks sent to the resource.
	Seeks uint64
}

// Open opens name for reading in pages of pageSize bytes. Release failures
// are recorded in errs, which must outlive the Reader.
func Open(errs *ErrorSink, name string, pageSize uint64, opts ...Option) (*Reader, error) {
	if err := checkPageSize(pageSize); err != nil {
		return nil, err
	}
	if errs == nil {
		return nil, ErrNilSink
	}

	c := newConfig(opts)

	src, err := c.storage.OpenRead(name)
	if err != nil {
		return nil, &ReadError{Name: name, Msg: "failed to open", Err: err}
	}

	log := c.log.WithField("resource", name)
	log.WithField("page_size", pageSize).Debug("opened for read")

	return &Reader{
		src:            src,
		name:           name,
		targetPageSize: pageSize,
		buf:            make([]byte, pageSize),
		errs:           errs,
		log:            log,
	}, nil
}

// Name returns the name of the resource being read.
func (r *Reader) Name() string {
	return r.name
}

// PageSize returns the size of the pages future refills will read.
func (r *Reader) PageSize() uint64 {
	return r.targetPageSize
}

// SetPageSize changes the size of future refills. The page currently in
// memory stays valid. A rejected size leaves the Reader unusable.
func (r *Reader) SetPageSize(n uint64) error {
	if err := r.check(); err != nil {
		return err
	}

	if err := checkPageSize(n); err != nil {
		return r.fail(err)
	}

	r.targetPageSize = n
	if uint64(len(r.buf)) < n {
		grown := make([]byte, n)
		copy(grown, r.buf[:r.activePageSize])
		r.buf = grown
	}
	return nil
}

// Offset returns the stream position of the next byte to be read.
func (r *Reader) Offset() uint64 {
	return r.pageBegin + r.cursor
}

// SetOffset moves the read position to pos. If pos is inside the page in
// memory no I/O is done.
func (r *Reader) SetOffset(pos uint64) error {
	if err := r.check(); err != nil {
		return err
	}

	if r.pageBegin <= pos && pos < r.pageBegin+r.activePageSize {
		r.cursor = pos - r.pageBegin
		return nil
	}

	if pos > math.MaxInt64 {
		return r.fail(&ReadError{Name: r.name, Msg: "failed to seek", Err: errOffsetRange})
	}
	if _, err := r.src.Seek(int64(pos), io.SeekStart); err != nil {
		return r.fail(&ReadError{Name: r.name, Msg: "failed to seek", Err: err})
	}
	r.stats.Seeks++

	// Drop the page, the next read refills from pos
	r.pageBegin = pos
	r.pageEnd = pos
	r.activePageSize = 0
	r.cursor = 0
	r.eof = false

	r.log.WithField("offset", pos).Debug("seek")
	return nil
}

// EOF reports whether a refill has reached the end of the data. It does not
// become true merely because the last buffered byte was consumed.
func (r *Reader) EOF() bool {
	return r.eof
}

// Stats returns the I/O counters.
func (r *Reader) Stats() Stats {
	return r.stats
}

// Read fills p from the current offset, refilling pages as needed.
func (r *Reader) Read(p []byte) error {
	if err := r.check(); err != nil {
		return err
	}

	size := uint64(len(p))
	for r.cursor+size > r.activePageSize {
		lead := r.activePageSize - r.cursor
		copy(p, r.buf[r.cursor:r.activePageSize])
		p = p[lead:]
		size -= lead
		r.cursor = r.activePageSize

		n, err := r.readPage()
		if err != nil {
			return r.fail(err)
		}
		// A short final page may still hold everything that is left to read
		if n < r.targetPageSize && n < size {
			return r.fail(&ReadError{Name: r.name, Err: ErrShortPage})
		}
	}

	copy(p, r.buf[r.cursor:r.cursor+size])
	r.cursor += size
	return nil
}

// ReadAligned skips forward to the next multiple of alignment and then fills
// p. Padding that runs past the page in memory is skipped in the pages that
// follow.
func (r *Reader) ReadAligned(p []byte, alignment uint64) error {
	if err := r.check(); err != nil {
		return err
	}

	pad := Padding(r.Offset(), alignment)
	for r.cursor+pad > r.activePageSize {
		pad -= r.activePageSize - r.cursor
		r.cursor = r.activePageSize

		n, err := r.readPage()
		if err != nil {
			return r.fail(err)
		}
		// Only a short page ends the data
		if n < pad && n < r.targetPageSize {
			return r.fail(&ReadError{Name: r.name, Err: ErrShortPage})
		}
	}
	r.cursor += pad

	return r.Read(p)
}

// readPage replaces the page in memory with the next targetPageSize bytes of
// the stream and returns how many were read. Fewer bytes are only returned
// at the end of the data.
func (r *Reader) readPage() (uint64, error) {
	n, err := io.ReadFull(r.src, r.buf[:r.targetPageSize])
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		r.eof = true
	} else if err != nil {
		return 0, &ReadError{Name: r.name, Err: err}
	}

	r.activePageSize = uint64(n)
	r.pageBegin = r.pageEnd
	r.pageEnd += r.activePageSize
	r.cursor = 0

	r.stats.Pages++
	r.stats.Bytes += r.activePageSize

	r.log.WithFields(logrus.Fields{
		"page_begin": r.pageBegin,
		"page_size":  r.activePageSize,
		"eof":        r.eof,
	}).Trace("page refill")

	return r.activePageSize, nil
}

// Move returns a new Reader that takes over the resource and page. r is
// left empty and every later call on it fails with ErrReleased.
func (r *Reader) Move() *Reader {
	moved := *r
	r.src = nil
	r.err = nil
	r.buf = nil
	return &moved
}

// Close closes the resource. Closing an empty Reader does nothing.
func (r *Reader) Close() error {
	if err := r.close(); err != nil {
		return err
	}
	return nil
}

// Release closes the resource and records a failure in the ErrorSink
// instead of returning it. It is meant to be deferred.
func (r *Reader) Release() {
	if err := r.close(); err != nil {
		r.log.WithError(err.Err).Warn("release failed")
		r.errs.add(err)
	}
}

func (r *Reader) close() *CloseError {
	if r.src == nil {
		return nil
	}

	src := r.src
	r.src = nil
	r.buf = nil
	if err := src.Close(); err != nil {
		return &CloseError{Name: r.name, Err: err}
	}

	r.log.WithField("pages", r.stats.Pages).Debug("closed")
	return nil
}

func (r *Reader) check() error {
	if r.src == nil {
		return ErrReleased
	}
	return r.err
}

func (r *Reader) fail(err error) error {
	r.err = err
	return err
}

// checkPageSize rejects a page size of zero and sizes that cannot be
// allocated as a single buffer.
func checkPageSize(n uint64) error {
	if n == 0 {
		return &InvalidPageSizeError{Size: n}
	}
	if n > math.MaxInt {
		return fmt.Errorf("%w: %d", ErrPageTooLarge, n)
	}
	return nil
}
