package main

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/joeandaverde/pickaxe/serial"
)

// valueType reads and writes one kind of scalar from its text form. An
// alignment of 0 means the type's own.
type valueType struct {
	put func(w *serial.Writer, text string, alignment uint64) error
	get func(r *serial.Reader, alignment uint64) (offset uint64, text string, err error)
}

var valueTypes = map[string]valueType{
	"u8":  scalar(parseUint[uint8](8), formatUint[uint8]),
	"u16": scalar(parseUint[uint16](16), formatUint[uint16]),
	"u32": scalar(parseUint[uint32](32), formatUint[uint32]),
	"u64": scalar(parseUint[uint64](64), formatUint[uint64]),
	"i8":  scalar(parseInt[int8](8), formatInt[int8]),
	"i16": scalar(parseInt[int16](16), formatInt[int16]),
	"i32": scalar(parseInt[int32](32), formatInt[int32]),
	"i64": scalar(parseInt[int64](64), formatInt[int64]),
	"f32": scalar(parseFloat[float32](32), formatFloat[float32](32)),
	"f64": scalar(parseFloat[float64](64), formatFloat[float64](64)),
}

func lookupType(name string) (valueType, error) {
	t, ok := valueTypes[name]
	if !ok {
		return valueType{}, fmt.Errorf("unknown type %q, expected one of %v", name, typeNames())
	}
	return t, nil
}

func typeNames() []string {
	names := make([]string, 0, len(valueTypes))
	for name := range valueTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func scalar[T serial.Scalar](parse func(string) (T, error), format func(T) string) valueType {
	var zero T
	natural := uint64(reflect.TypeOf(zero).Align())
	alignOf := func(alignment uint64) uint64 {
		if alignment == 0 {
			return natural
		}
		return alignment
	}

	return valueType{
		put: func(w *serial.Writer, text string, alignment uint64) error {
			v, err := parse(text)
			if err != nil {
				return err
			}
			if err := w.WriteAligned(nil, alignOf(alignment)); err != nil {
				return err
			}
			return serial.Put(w, v)
		},
		get: func(r *serial.Reader, alignment uint64) (uint64, string, error) {
			if err := r.ReadAligned(nil, alignOf(alignment)); err != nil {
				return 0, "", err
			}
			offset := r.Offset()
			v, err := serial.Get[T](r)
			if err != nil {
				return 0, "", err
			}
			return offset, format(v), nil
		},
	}
}

func parseUint[T ~uint8 | ~uint16 | ~uint32 | ~uint64](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseUint(s, 0, bits)
		return T(v), err
	}
}

func parseInt[T ~int8 | ~int16 | ~int32 | ~int64](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseInt(s, 0, bits)
		return T(v), err
	}
}

func parseFloat[T ~float32 | ~float64](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseFloat(s, bits)
		return T(v), err
	}
}

func formatUint[T ~uint8 | ~uint16 | ~uint32 | ~uint64](v T) string {
	return strconv.FormatUint(uint64(v), 10)
}

func formatInt[T ~int8 | ~int16 | ~int32 | ~int64](v T) string {
	return strconv.FormatInt(int64(v), 10)
}

func formatFloat[T ~float32 | ~float64](bits int) func(T) string {
	return func(v T) string {
		return strconv.FormatFloat(float64(v), 'g', -1, bits)
	}
}
