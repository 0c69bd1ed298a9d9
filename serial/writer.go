package serial

import (
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/pickaxe/storage"
)

// zeroes is the source of alignment padding. Larger pads are written in
// several chunks.
var zeroes [16]byte

// Writer writes bytes sequentially to a resource and tracks the offset of
// the next byte written. A Writer is not safe for concurrent use.
type Writer struct {
	sink   storage.Sink
	name   string
	offset uint64
	err    error

	errs *ErrorSink
	log  logrus.FieldLogger
}

// Create opens name for writing, truncating anything already there. Release
// failures are recorded in errs, which must outlive the Writer.
func Create(errs *ErrorSink, name string, opts ...Option) (*Writer, error) {
	if errs == nil {
		return nil, ErrNilSink
	}

	c := newConfig(opts)

	sink, err := c.storage.OpenWrite(name)
	if err != nil {
		return nil, &WriteError{Name: name, Msg: "failed to open", Err: err}
	}

	log := c.log.WithField("resource", name)
	log.Debug("opened for write")

	return &Writer{
		sink: sink,
		name: name,
		errs: errs,
		log:  log,
	}, nil
}

// Name returns the name of the resource being written.
func (w *Writer) Name() string {
	return w.name
}

// Offset returns the position the next byte will be written at.
func (w *Writer) Offset() uint64 {
	return w.offset
}

// SetOffset moves the write position to pos.
func (w *Writer) SetOffset(pos uint64) error {
	if err := w.check(); err != nil {
		return err
	}

	if pos > math.MaxInt64 {
		return w.fail(&WriteError{Name: w.name, Msg: "failed to seek", Err: errOffsetRange})
	}
	if _, err := w.sink.Seek(int64(pos), io.SeekStart); err != nil {
		return w.fail(&WriteError{Name: w.name, Msg: "failed to seek", Err: err})
	}

	w.offset = pos
	return nil
}

// SetOffsetAligned moves the write position to pos rounded up to a multiple
// of alignment.
func (w *Writer) SetOffsetAligned(pos, alignment uint64) error {
	return w.SetOffset(AlignUp(pos, alignment))
}

// Write writes all of p at the current offset.
func (w *Writer) Write(p []byte) error {
	if err := w.check(); err != nil {
		return err
	}

	n, err := w.sink.Write(p)
	if err == nil && n != len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return w.fail(&WriteError{Name: w.name, Err: err})
	}

	w.offset += uint64(len(p))
	return nil
}

// WriteAligned writes zero bytes until the offset is a multiple of alignment
// and then writes p.
func (w *Writer) WriteAligned(p []byte, alignment uint64) error {
	if err := w.check(); err != nil {
		return err
	}

	pad := Padding(w.offset, alignment)
	for pad > 0 {
		chunk := min(pad, uint64(len(zeroes)))
		if err := w.Write(zeroes[:chunk]); err != nil {
			return err
		}
		pad -= chunk
	}

	return w.Write(p)
}

// Flush pushes any buffered bytes to the resource.
func (w *Writer) Flush() error {
	if err := w.check(); err != nil {
		return err
	}

	if err := w.sink.Flush(); err != nil {
		return w.fail(&WriteError{Name: w.name, Msg: "failed to flush", Err: err})
	}
	return nil
}

// Move returns a new Writer that takes over the resource. w is left empty
// and every later call on it fails with ErrReleased.
func (w *Writer) Move() *Writer {
	moved := *w
	w.sink = nil
	w.err = nil
	return &moved
}

// Close closes the resource. Closing an empty Writer does nothing.
func (w *Writer) Close() error {
	if err := w.close(); err != nil {
		return err
	}
	return nil
}

// Release closes the resource and records a failure in the ErrorSink
// instead of returning it. It is meant to be deferred.
func (w *Writer) Release() {
	if err := w.close(); err != nil {
		w.log.WithError(err.Err).Warn("release failed")
		w.errs.add(err)
	}
}

func (w *Writer) close() *CloseError {
	if w.sink == nil {
		return nil
	}

	sink := w.sink
	w.sink = nil
	if err := sink.Close(); err != nil {
		return &CloseError{Name: w.name, Err: err}
	}

	w.log.WithField("offset", w.offset).Debug("closed")
	return nil
}

func (w *Writer) check() error {
	if w.sink == nil {
		return ErrReleased
	}
	return w.err
}

func (w *Writer) fail(err error) error {
	w.err = err
	return err
}
