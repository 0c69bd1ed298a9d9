package serial

import "errors"

// ErrorSink collects the failures of releasing Writers and Readers.
//
// Release happens from deferred calls that have nowhere to report an error,
// so the failure is recorded here instead. The sink must outlive every Writer
// and Reader bound to it and the caller is expected to check it once they
// have been released. It is never cleared automatically.
type ErrorSink struct {
	closeErrs []*CloseError
}

func (s *ErrorSink) add(err *CloseError) {
	s.closeErrs = append(s.closeErrs, err)
}

// IsEmpty reports whether no failures have been recorded.
func (s *ErrorSink) IsEmpty() bool {
	return len(s.closeErrs) == 0
}

// Len returns the number of recorded failures.
func (s *ErrorSink) Len() int {
	return len(s.closeErrs)
}

// Errors returns the recorded failures in the order they happened.
func (s *ErrorSink) Errors() []*CloseError {
	return append([]*CloseError(nil), s.closeErrs...)
}

// Err joins the recorded failures, or returns nil if there are none.
func (s *ErrorSink) Err() error {
	if s.IsEmpty() {
		return nil
	}

	errs := make([]error, len(s.closeErrs))
	for i, e := range s.closeErrs {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Clear drops every recorded failure.
func (s *ErrorSink) Clear() {
	s.closeErrs = nil
}
