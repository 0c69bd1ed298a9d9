package serial

import (
	"errors"
	"math"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"

	"github.com/joeandaverde/pickaxe/storage"
)

type ReaderTestSuite struct {
	suite.Suite
	mem  *storage.Memory
	errs *ErrorSink
	hook *test.Hook
	opts []Option
}

func (s *ReaderTestSuite) SetupTest() {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)

	s.mem = storage.NewMemory()
	s.errs = &ErrorSink{}
	s.hook = hook
	s.opts = []Option{WithStorage(s.mem), WithLogger(logger)}
}

func TestReaderTestSuite(t *testing.T) {
	suite.Run(t, new(ReaderTestSuite))
}

func (s *ReaderTestSuite) open(name string, pageSize uint64) *Reader {
	r, err := Open(s.errs, name, pageSize, s.opts...)
	s.Require().NoError(err)
	return r
}

func (s *ReaderTestSuite) read(r *Reader, n int) []byte {
	buf := make([]byte, n)
	s.Require().NoError(r.Read(buf))
	return buf
}

func sequence(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i)
	}
	return data
}

func (s *ReaderTestSuite) TestRead_ShortFinalPage() {
	f := s.mem.Create("abc", []byte("ABCDEF"))
	r := s.open("abc", 4)
	defer r.Release()

	s.Equal([]byte("ABC"), s.read(r, 3))
	s.Equal(1, f.Reads)
	s.Equal(uint64(4), r.activePageSize)
	s.Equal(uint64(3), r.Offset())

	// D comes from the first page, E and F from the short second one
	s.Equal([]byte("DEF"), s.read(r, 3))
	s.Equal(2, f.Reads)
	s.Equal(uint64(2), r.activePageSize)
	s.Equal(uint64(6), r.Offset())
	s.True(r.EOF())

	err := r.Read(make([]byte, 1))
	s.ErrorIs(err, ErrShortPage)

	var readErr *ReadError
	s.Require().True(errors.As(err, &readErr))
	s.Equal("abc", readErr.Name)
	s.Equal("failed to read 'abc': not enough remaining bytes at current offset", err.Error())
}

func (s *ReaderTestSuite) TestRead_ExactlyRemaining() {
	s.mem.Create("data", sequence(6))
	r := s.open("data", 4)
	defer r.Release()

	s.Equal([]byte{0, 1, 2, 3}, s.read(r, 4))
	s.False(r.EOF())

	s.Equal([]byte{4, 5}, s.read(r, 2))
	s.True(r.EOF())
}

func (s *ReaderTestSuite) TestRead_MoreThanRemaining() {
	s.mem.Create("data", sequence(6))
	r := s.open("data", 4)
	defer r.Release()

	s.read(r, 4)
	err := r.Read(make([]byte, 3))
	s.ErrorIs(err, ErrShortPage)
	s.True(r.EOF())

	// Failures are sticky
	s.ErrorIs(r.Read(make([]byte, 1)), ErrShortPage)
}

func (s *ReaderTestSuite) TestRead_RefillCount() {
	f := s.mem.Create("data", sequence(10))
	r := s.open("data", 4)
	defer r.Release()

	for i := 0; i < 10; i++ {
		s.Equal(uint64(i), r.Offset())
		s.Equal([]byte{byte(i)}, s.read(r, 1))
		s.Equal(uint64(i+1), r.Offset())
	}

	// ceil(10 / 4) reads of 4, 4 and 2 bytes
	s.Equal(3, f.Reads)
	s.Equal(10, f.BytesRead)
	s.Equal(Stats{Pages: 3, Bytes: 10}, r.Stats())
}

func (s *ReaderTestSuite) TestRead_ExactMultipleOfPageSize() {
	f := s.mem.Create("data", sequence(8))
	r := s.open("data", 4)
	defer r.Release()

	s.Equal(sequence(8), s.read(r, 8))
	s.Equal(2, f.Reads)
	s.False(r.EOF())

	s.ErrorIs(r.Read(make([]byte, 1)), ErrShortPage)
	s.True(r.EOF())
}

func (s *ReaderTestSuite) TestRead_SpansManyPages() {
	f := s.mem.Create("data", sequence(10))
	r := s.open("data", 3)
	defer r.Release()

	s.Equal(sequence(10), s.read(r, 10))
	s.Equal(4, f.Reads)
	s.Equal(uint64(10), r.Offset())
}

func (s *ReaderTestSuite) TestRead_Empty() {
	f := s.mem.Create("data", sequence(4))
	r := s.open("data", 4)
	defer r.Release()

	s.NoError(r.Read(nil))
	s.Equal(0, f.Reads)
	s.Equal(uint64(0), r.Offset())
}

func (s *ReaderTestSuite) TestSetOffset_FastPath() {
	f := s.mem.Create("data", sequence(16))
	r := s.open("data", 8)
	defer r.Release()

	s.read(r, 2)
	s.Equal(1, f.Reads)

	for _, pos := range []uint64{7, 0, 5} {
		s.NoError(r.SetOffset(pos))
		s.Equal(pos, r.Offset())
		s.Equal([]byte{byte(pos)}, s.read(r, 1))
	}

	s.Equal(1, f.Reads)
	s.Equal(0, f.Seeks)
}

func (s *ReaderTestSuite) TestSetOffset_SlowPath() {
	f := s.mem.Create("data", sequence(16))
	r := s.open("data", 4)
	defer r.Release()

	s.read(r, 2)

	s.NoError(r.SetOffset(9))
	s.Equal(1, f.Seeks)
	s.Equal(uint64(9), r.Offset())
	s.Equal(1, f.Reads)

	s.Equal([]byte{9, 10, 11, 12, 13}, s.read(r, 5))
	s.Equal(3, f.Reads)
	s.Equal(uint64(14), r.Offset())

	// Seeking back before the page start needs I/O again
	s.NoError(r.SetOffset(3))
	s.Equal(2, f.Seeks)
	s.Equal([]byte{3}, s.read(r, 1))
}

func (s *ReaderTestSuite) TestSetOffset_ClearsEOF() {
	s.mem.Create("data", sequence(6))
	r := s.open("data", 8)
	defer r.Release()

	s.read(r, 6)
	s.True(r.EOF())

	// Offset 6 is outside the buffered page
	s.NoError(r.SetOffset(6))
	s.False(r.EOF())
	s.ErrorIs(r.Read(make([]byte, 1)), ErrShortPage)
	s.True(r.EOF())
}

func (s *ReaderTestSuite) TestSetOffset_Failure() {
	f := s.mem.Create("data", sequence(6))
	f.FailSeek = errors.New("seek failed")
	r := s.open("data", 4)
	defer r.Release()

	err := r.SetOffset(100)
	s.ErrorIs(err, f.FailSeek)

	var readErr *ReadError
	s.Require().True(errors.As(err, &readErr))
	s.Equal("failed to seek", readErr.Msg)
	s.ErrorIs(r.Read(make([]byte, 1)), f.FailSeek)
}

func (s *ReaderTestSuite) TestRead_SourceFailure() {
	f := s.mem.Create("data", sequence(6))
	f.FailRead = errors.New("disk on fire")
	r := s.open("data", 4)
	defer r.Release()

	err := r.Read(make([]byte, 1))
	s.ErrorIs(err, f.FailRead)
	s.NotErrorIs(err, ErrShortPage)
	s.False(r.EOF())
}

func (s *ReaderTestSuite) TestSetPageSize() {
	f := s.mem.Create("data", sequence(20))
	r := s.open("data", 4)
	defer r.Release()

	s.Equal([]byte{0, 1}, s.read(r, 2))
	s.NoError(r.SetPageSize(8))
	s.Equal(uint64(8), r.PageSize())

	// The buffered page survives
	s.Equal([]byte{2, 3}, s.read(r, 2))
	s.Equal(1, f.Reads)

	s.Equal([]byte{4}, s.read(r, 1))
	s.Equal(2, f.Reads)
	s.Equal(uint64(8), r.activePageSize)

	s.NoError(r.SetPageSize(2))
	s.Equal(sequence(20)[5:13], s.read(r, 8))
	s.Equal(3, f.Reads)
	s.Equal(uint64(2), r.activePageSize)
}

func (s *ReaderTestSuite) TestInvalidPageSize() {
	s.mem.Create("data", sequence(4))

	_, err := Open(s.errs, "data", 0, s.opts...)
	var sizeErr *InvalidPageSizeError
	s.Require().True(errors.As(err, &sizeErr))
	s.Equal("invalid page size: 0", err.Error())

	r := s.open("data", 4)
	defer r.Release()

	s.True(errors.As(r.SetPageSize(0), &sizeErr))
	s.Equal(uint64(4), r.PageSize())
	s.True(errors.As(r.Read(make([]byte, 1)), &sizeErr))
}

func (s *ReaderTestSuite) TestOpen_Missing() {
	_, err := Open(s.errs, "missing", 4, s.opts...)
	s.ErrorIs(err, os.ErrNotExist)

	var readErr *ReadError
	s.Require().True(errors.As(err, &readErr))
	s.Equal("failed to open", readErr.Msg)
}

func (s *ReaderTestSuite) TestReadAligned() {
	s.mem.Create("data", sequence(32))
	r := s.open("data", 4)
	defer r.Release()

	s.Equal([]byte{0}, s.read(r, 1))

	buf := make([]byte, 2)
	s.NoError(r.ReadAligned(buf, 4))
	s.Equal([]byte{4, 5}, buf)

	buf = make([]byte, 1)
	s.NoError(r.ReadAligned(buf, 8))
	s.Equal([]byte{8}, buf)

	// Already aligned
	s.NoError(r.ReadAligned(buf, 1))
	s.Equal([]byte{9}, buf)
	s.Equal(uint64(10), r.Offset())
}

func (s *ReaderTestSuite) TestReadAligned_PadCrossesPage() {
	f := s.mem.Create("data", sequence(32))
	r := s.open("data", 4)
	defer r.Release()

	// The page now starts at an unaligned offset
	s.NoError(r.SetOffset(1))
	s.Equal([]byte{1}, s.read(r, 1))

	buf := make([]byte, 2)
	s.NoError(r.ReadAligned(buf, 8))
	s.Equal([]byte{8, 9}, buf)
	s.Equal(uint64(10), r.Offset())
	s.Equal(3, f.Reads)
}

func (s *ReaderTestSuite) TestReadAligned_PadPastEnd() {
	s.mem.Create("data", sequence(5))
	r := s.open("data", 4)
	defer r.Release()

	s.read(r, 3)
	s.ErrorIs(r.ReadAligned(make([]byte, 1), 8), ErrShortPage)
}

func (s *ReaderTestSuite) TestReadAligned_AlignmentAbovePageSize() {
	f := s.mem.Create("data", sequence(64))
	r := s.open("data", 4)
	defer r.Release()

	s.Equal([]byte{0}, s.read(r, 1))

	buf := make([]byte, 2)
	s.NoError(r.ReadAligned(buf, 16))
	s.Equal([]byte{16, 17}, buf)
	s.Equal(uint64(18), r.Offset())
	s.Equal(5, f.Reads)

	s.NoError(r.ReadAligned(buf, 32))
	s.Equal([]byte{32, 33}, buf)
	s.False(r.EOF())
}

func (s *ReaderTestSuite) TestReadAligned_PadSpansPagesPastEnd() {
	s.mem.Create("data", sequence(10))
	r := s.open("data", 4)
	defer r.Release()

	s.read(r, 1)
	s.ErrorIs(r.ReadAligned(make([]byte, 1), 16), ErrShortPage)
	s.True(r.EOF())
}

func (s *ReaderTestSuite) TestReadAligned_PadEndsAtDataEnd() {
	s.mem.Create("data", sequence(8))
	r := s.open("data", 2)
	defer r.Release()

	s.read(r, 1)
	s.NoError(r.ReadAligned(nil, 8))
	s.Equal(uint64(8), r.Offset())
	s.ErrorIs(r.Read(make([]byte, 1)), ErrShortPage)
}

func (s *ReaderTestSuite) TestPageTooLarge() {
	s.mem.Create("data", sequence(4))

	_, err := Open(s.errs, "data", math.MaxUint64, s.opts...)
	s.ErrorIs(err, ErrPageTooLarge)

	r := s.open("data", 4)
	defer r.Release()

	s.ErrorIs(r.SetPageSize(math.MaxUint64), ErrPageTooLarge)
	s.ErrorIs(r.Read(make([]byte, 1)), ErrPageTooLarge)
}

func (s *ReaderTestSuite) TestOpen_NilSink() {
	f := s.mem.Create("data", sequence(4))

	_, err := Open(nil, "data", 4, s.opts...)
	s.ErrorIs(err, ErrNilSink)
	s.Equal(0, f.Reads)
}

func (s *ReaderTestSuite) TestRelease_CloseFailure() {
	f := s.mem.Create("data", sequence(4))
	f.FailClose = errors.New("close failed")
	r := s.open("data", 4)

	s.NotPanics(r.Release)
	s.Equal(1, s.errs.Len())
	s.Equal("data", s.errs.Errors()[0].Name)
	s.ErrorIs(s.errs.Err(), f.FailClose)
	s.Equal(logrus.WarnLevel, s.hook.LastEntry().Level)

	// Released twice, recorded once
	r.Release()
	s.Equal(1, s.errs.Len())
	s.Equal(1, f.Closes)

	s.ErrorIs(r.Read(make([]byte, 1)), ErrReleased)
	s.ErrorIs(r.SetOffset(0), ErrReleased)
}

func (s *ReaderTestSuite) TestClose() {
	f := s.mem.Create("data", sequence(4))
	r := s.open("data", 4)

	s.NoError(r.Close())
	s.NoError(r.Close())
	r.Release()

	s.True(s.errs.IsEmpty())
	s.Equal(1, f.Closes)
}

func (s *ReaderTestSuite) TestClose_Failure() {
	f := s.mem.Create("data", sequence(4))
	f.FailClose = errors.New("close failed")
	r := s.open("data", 4)

	err := r.Close()
	var closeErr *CloseError
	s.Require().True(errors.As(err, &closeErr))
	s.Equal("failed to close 'data': close failed", err.Error())

	// Explicit closes report directly, not through the sink
	s.True(s.errs.IsEmpty())
}

func (s *ReaderTestSuite) TestMove() {
	f := s.mem.Create("data", sequence(8))
	r := s.open("data", 4)
	s.read(r, 2)

	moved := r.Move()
	defer moved.Release()

	s.ErrorIs(r.Read(make([]byte, 1)), ErrReleased)
	r.Release()
	s.Equal(0, f.Closes)

	s.Equal(uint64(2), moved.Offset())
	s.Equal([]byte{2, 3, 4}, s.read(moved, 3))
}
