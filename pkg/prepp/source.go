package prepp

import (
	"bufio"
	"io"
	"os"
)

// Source is a readable line-oriented resource with identity, a current read
// position and a closed flag. ReadLine returns io.EOF once the resource is
// drained; every other method fails with a ClosedStreamError after Close.
type Source interface {
	Name() string
	ReadLine() (string, error)
	Tell() (int64, error)
	Seek(offset int64) error
	Close() error
}

// streamSource reads lines from a seekable stream, keeping an exact logical
// offset so snapshots taken over it can re-anchor the buffered reader.
type streamSource struct {
	name   string
	rs     io.ReadSeeker
	br     *bufio.Reader
	pos    int64
	closed bool
}

// OpenSource opens the file at path as a Source.
func OpenSource(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &streamSource{name: path, rs: f, br: bufio.NewReader(f)}, nil
}

// NewReaderSource wraps an in-memory or otherwise seekable reader as a
// Source with the given display name.
func NewReaderSource(name string, rs io.ReadSeeker) Source {
	return &streamSource{name: name, rs: rs, br: bufio.NewReader(rs)}
}

func (s *streamSource) Name() string {
	return s.name
}

func (s *streamSource) ReadLine() (string, error) {
	if s.closed {
		return "", NewClosedStreamError(s.name)
	}
	line, err := s.br.ReadString('\n')
	s.pos += int64(len(line))
	if len(line) > 0 {
		// A final line without a newline still counts; EOF surfaces on
		// the next call.
		return line, nil
	}
	if err == nil {
		err = io.EOF
	}
	return "", err
}

func (s *streamSource) Tell() (int64, error) {
	if s.closed {
		return 0, NewClosedStreamError(s.name)
	}
	return s.pos, nil
}

func (s *streamSource) Seek(offset int64) error {
	if s.closed {
		return NewClosedStreamError(s.name)
	}
	if _, err := s.rs.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	s.br.Reset(s.rs)
	s.pos = offset
	return nil
}

func (s *streamSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if c, ok := s.rs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// snapshotSource records another Source's position at creation time. Its
// first ReadLine seeks the shared underlying Source back to that position;
// afterwards it reads the underlying Source directly, so the underlying
// cursor advances with it. Closing a snapshot only marks the snapshot
// closed, never the shared resource.
type snapshotSource struct {
	under  Source
	name   string
	offset int64 // -1 once the first read has re-anchored the underlying
	closed bool
}

// NewSnapshotSource creates a lazy replay cursor over src without reading
// or disturbing it.
func NewSnapshotSource(src Source) (Source, error) {
	off, err := src.Tell()
	if err != nil {
		return nil, err
	}
	return &snapshotSource{under: src, name: src.Name(), offset: off}, nil
}

func (s *snapshotSource) Name() string {
	return s.name
}

func (s *snapshotSource) ReadLine() (string, error) {
	if s.closed {
		return "", NewClosedStreamError(s.name)
	}
	if s.offset >= 0 {
		if err := s.under.Seek(s.offset); err != nil {
			return "", err
		}
		s.offset = -1
	}
	return s.under.ReadLine()
}

func (s *snapshotSource) Tell() (int64, error) {
	if s.closed {
		return 0, NewClosedStreamError(s.name)
	}
	if s.offset >= 0 {
		return s.offset, nil
	}
	return s.under.Tell()
}

func (s *snapshotSource) Seek(offset int64) error {
	if s.closed {
		return NewClosedStreamError(s.name)
	}
	s.offset = -1
	return s.under.Seek(offset)
}

func (s *snapshotSource) Close() error {
	s.closed = true
	return nil
}
