package prepp

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func mustReadLine(t *testing.T, src Source) string {
	t.Helper()
	line, err := src.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	return line
}

func TestStreamSourceReadsLines(t *testing.T) {
	path := writeFile(t, t.TempDir(), "in.txt", "one\ntwo\nthree")
	src, err := OpenSource(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if got := mustReadLine(t, src); got != "one\n" {
		t.Errorf("line 1 = %q", got)
	}
	if got := mustReadLine(t, src); got != "two\n" {
		t.Errorf("line 2 = %q", got)
	}
	// final line has no newline but is still returned
	if got := mustReadLine(t, src); got != "three" {
		t.Errorf("line 3 = %q", got)
	}
	if _, err := src.ReadLine(); err != io.EOF {
		t.Errorf("after last line, err = %v, want io.EOF", err)
	}
}

func TestStreamSourceTellSeek(t *testing.T) {
	src := NewReaderSource("mem", strings.NewReader("alpha\nbeta\n"))

	mustReadLine(t, src)
	pos, err := src.Tell()
	if err != nil {
		t.Fatal(err)
	}
	if pos != int64(len("alpha\n")) {
		t.Errorf("Tell = %d", pos)
	}

	mustReadLine(t, src)
	if err := src.Seek(pos); err != nil {
		t.Fatal(err)
	}
	if got := mustReadLine(t, src); got != "beta\n" {
		t.Errorf("after seek, line = %q", got)
	}
}

func TestSnapshotReplaysFromRecordedPosition(t *testing.T) {
	src := NewReaderSource("mem", strings.NewReader("a\nb\nc\n"))
	mustReadLine(t, src) // consume "a"

	snap, err := NewSnapshotSource(src)
	if err != nil {
		t.Fatal(err)
	}

	// Advancing the underlying source does not move the snapshot's
	// starting point.
	if got := mustReadLine(t, src); got != "b\n" {
		t.Fatalf("underlying line = %q", got)
	}

	if got := mustReadLine(t, snap); got != "b\n" {
		t.Errorf("snapshot first line = %q, want replay of b", got)
	}
	// After the first read the snapshot shares the underlying cursor.
	if got := mustReadLine(t, snap); got != "c\n" {
		t.Errorf("snapshot second line = %q", got)
	}
	if got, _ := src.Tell(); got != int64(len("a\nb\nc\n")) {
		t.Errorf("underlying cursor = %d, want end", got)
	}
}

func TestSnapshotOverSnapshot(t *testing.T) {
	src := NewReaderSource("mem", strings.NewReader("x\ny\n"))
	outerSnap, err := NewSnapshotSource(src)
	if err != nil {
		t.Fatal(err)
	}
	innerSnap, err := NewSnapshotSource(outerSnap)
	if err != nil {
		t.Fatal(err)
	}
	if got := mustReadLine(t, innerSnap); got != "x\n" {
		t.Errorf("nested snapshot line = %q", got)
	}
}

func TestSnapshotCloseLeavesUnderlyingOpen(t *testing.T) {
	src := NewReaderSource("mem", strings.NewReader("p\nq\n"))
	snap, err := NewSnapshotSource(src)
	if err != nil {
		t.Fatal(err)
	}
	if err := snap.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := snap.ReadLine(); !IsClosedStreamError(err) {
		t.Errorf("read after close: err = %v, want ClosedStreamError", err)
	}
	if got := mustReadLine(t, src); got != "p\n" {
		t.Errorf("underlying read after snapshot close = %q", got)
	}
}

func TestClosedSourceOperations(t *testing.T) {
	src := NewReaderSource("mem", strings.NewReader("z\n"))
	if err := src.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := src.ReadLine(); !IsClosedStreamError(err) {
		t.Errorf("ReadLine err = %v", err)
	}
	if _, err := src.Tell(); !IsClosedStreamError(err) {
		t.Errorf("Tell err = %v", err)
	}
	if err := src.Seek(0); !IsClosedStreamError(err) {
		t.Errorf("Seek err = %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("second Close err = %v, want nil", err)
	}
}
