// Package serial writes and reads raw binary data at explicit offsets.
//
// A Writer appends bytes to a named resource and can pad to an alignment.
// A Reader pulls the resource in fixed size pages and serves reads from
// the current page, refilling when a read crosses its end. Failures are
// reported as *WriteError or *ReadError and stick to the handle that
// produced them. Handles released with Release report close failures to
// an ErrorSink instead of returning them.
package serial
