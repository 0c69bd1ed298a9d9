package serial

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"

	"golang.org/x/exp/constraints"
)

// Scalar is the set of fixed size numeric types.
type Scalar interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		constraints.Float | constraints.Complex
}

// Values are copied in the platform's byte order, so a value read back on the
// machine that wrote it is bit for bit identical.
var byteOrder = binary.NativeEndian

// WriteValue writes the binary representation of v. v must be a fixed size
// value: a number, bool, or an array or struct made only of those, laid out
// without padding.
func (w *Writer) WriteValue(v any) error {
	data, err := encodeValue(v)
	if err != nil {
		return err
	}
	return w.Write(data)
}

// WriteValueAligned writes v at the next multiple of its type's alignment.
func (w *Writer) WriteValueAligned(v any) error {
	data, err := encodeValue(v)
	if err != nil {
		return err
	}
	return w.WriteAligned(data, uint64(reflect.TypeOf(v).Align()))
}

// ReadValue reads into dst, which must point to a fixed size value.
func (r *Reader) ReadValue(dst any) error {
	size, err := valueSize(dst)
	if err != nil {
		return err
	}

	data := make([]byte, size)
	if err := r.Read(data); err != nil {
		return err
	}
	return decodeValue(data, dst)
}

// ReadValueAligned reads into dst from the next multiple of its type's
// alignment.
func (r *Reader) ReadValueAligned(dst any) error {
	size, err := valueSize(dst)
	if err != nil {
		return err
	}

	data := make([]byte, size)
	if err := r.ReadAligned(data, uint64(reflect.TypeOf(dst).Elem().Align())); err != nil {
		return err
	}
	return decodeValue(data, dst)
}

// Put writes a scalar.
func Put[T Scalar](w *Writer, v T) error {
	return w.WriteValue(v)
}

// PutAligned writes a scalar at the next multiple of its alignment.
func PutAligned[T Scalar](w *Writer, v T) error {
	return w.WriteValueAligned(v)
}

// Get reads a scalar.
func Get[T Scalar](r *Reader) (T, error) {
	var v T
	err := r.ReadValue(&v)
	return v, err
}

// GetAligned reads a scalar from the next multiple of its alignment.
func GetAligned[T Scalar](r *Reader) (T, error) {
	var v T
	err := r.ReadValueAligned(&v)
	return v, err
}

func encodeValue(v any) ([]byte, error) {
	if !fixedKind(reflect.TypeOf(v)) {
		return nil, fmt.Errorf("%w: %T", ErrInvalidValue, v)
	}

	size := binary.Size(v)
	if !packed(reflect.TypeOf(v), size) {
		return nil, fmt.Errorf("%w: %T", ErrInvalidValue, v)
	}

	buf := bytes.NewBuffer(make([]byte, 0, size))
	if err := binary.Write(buf, byteOrder, v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return buf.Bytes(), nil
}

func valueSize(dst any) (int, error) {
	t := reflect.TypeOf(dst)
	if t == nil || t.Kind() != reflect.Pointer || reflect.ValueOf(dst).IsNil() {
		return 0, fmt.Errorf("%w: %T is not a non-nil pointer", ErrInvalidValue, dst)
	}
	if !fixedKind(t.Elem()) {
		return 0, fmt.Errorf("%w: %T", ErrInvalidValue, dst)
	}

	size := binary.Size(dst)
	if !packed(t.Elem(), size) {
		return 0, fmt.Errorf("%w: %T", ErrInvalidValue, dst)
	}
	return size, nil
}

func decodeValue(data []byte, dst any) error {
	if err := binary.Read(bytes.NewReader(data), byteOrder, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return nil
}

// fixedKind rejects the top level kinds encoding/binary would accept with a
// variable size.
func fixedKind(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice:
		return false
	}
	return true
}

// packed reports whether the binary encoding of t is exactly its in-memory
// size. Types with padding between or after fields are not.
func packed(t reflect.Type, size int) bool {
	return size >= 0 && uintptr(size) == t.Size()
}
