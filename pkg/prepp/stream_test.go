package prepp

import (
	"errors"
	"strings"
	"testing"
)

func memSource(name, content string) Source {
	return NewReaderSource(name, strings.NewReader(content))
}

func TestStreamMuxSwitchAndResume(t *testing.T) {
	entry := memSource("entry", "a\n")
	included := memSource("included", "b\n")

	mux := newStreamMux(entry, 0)
	if mux.Current() != entry {
		t.Fatal("current should start at the entry source")
	}

	if err := mux.SwitchTo(included, parkOuter); err != nil {
		t.Fatal(err)
	}
	if mux.Current() != included {
		t.Error("current should be the included source after switch")
	}

	if err := mux.ResumePrevious(); err != nil {
		t.Fatal(err)
	}
	if mux.Current() != entry {
		t.Error("resume should restore the parked outer source")
	}

	if err := mux.ResumePrevious(); err != nil {
		t.Fatal(err)
	}
	if !mux.Done() {
		t.Error("draining the last source should end processing")
	}
}

func TestStreamMuxResumeSkipsInnerParked(t *testing.T) {
	entry := memSource("entry", "a\n")
	host := memSource("host", "b\n")

	mux := newStreamMux(entry, 0)
	if err := mux.SwitchTo(host, parkInner); err != nil {
		t.Fatal(err)
	}

	// The inner-parked entry is a resume marker, not a resumption target.
	if err := mux.ResumePrevious(); err != nil {
		t.Fatal(err)
	}
	if !mux.Done() {
		t.Error("resume must draw from the outer stack only")
	}
}

func TestStreamMuxPopInner(t *testing.T) {
	entry := memSource("entry", "a\n")
	host := memSource("host", "b\n")

	mux := newStreamMux(entry, 0)
	if err := mux.SwitchTo(host, parkInner); err != nil {
		t.Fatal(err)
	}

	src, err := mux.PopInner()
	if err != nil {
		t.Fatal(err)
	}
	if src != entry {
		t.Error("PopInner should return the most recently inner-parked source")
	}

	if _, err := mux.PopInner(); !errors.Is(err, ErrEmptyTransclusionStack) {
		t.Errorf("empty inner stack: err = %v, want ErrEmptyTransclusionStack", err)
	}
}

func TestStreamMuxDepthLimit(t *testing.T) {
	mux := newStreamMux(memSource("entry", ""), 2)
	if err := mux.SwitchTo(memSource("one", ""), parkOuter); err != nil {
		t.Fatal(err)
	}
	if err := mux.SwitchTo(memSource("two", ""), parkOuter); err == nil {
		t.Error("exceeding the depth limit should fail")
	}
}

func TestStreamMuxDepthIgnoresSnapshots(t *testing.T) {
	mux := newStreamMux(memSource("entry", "a\nb\n"), 2)
	for i := 0; i < 10; i++ {
		snap, err := mux.SnapshotCurrent()
		if err != nil {
			t.Fatal(err)
		}
		if err := mux.SwitchTo(snap, parkOuter); err != nil {
			t.Fatalf("snapshot %d: %v, replay cursors must not count against the depth limit", i, err)
		}
	}
	if err := mux.SwitchTo(memSource("file", ""), parkOuter); err != nil {
		t.Fatalf("second file within the limit: %v", err)
	}
	if err := mux.SwitchTo(memSource("extra", ""), parkOuter); err == nil {
		t.Error("third file should exceed the limit")
	}
}

func TestStreamMuxSnapshotCurrent(t *testing.T) {
	src := memSource("entry", "a\nb\n")
	mux := newStreamMux(src, 0)
	if _, err := src.ReadLine(); err != nil {
		t.Fatal(err)
	}

	snap, err := mux.SnapshotCurrent()
	if err != nil {
		t.Fatal(err)
	}
	line, err := snap.ReadLine()
	if err != nil {
		t.Fatal(err)
	}
	if line != "b\n" {
		t.Errorf("snapshot line = %q, want replay from current position", line)
	}
}

func TestStreamMuxCloseAll(t *testing.T) {
	entry := memSource("entry", "a\n")
	outer := memSource("outer", "b\n")
	inner := memSource("inner", "c\n")

	mux := newStreamMux(entry, 0)
	mux.SwitchTo(outer, parkOuter)
	mux.SwitchTo(inner, parkInner)
	mux.CloseAll()

	if !mux.Done() {
		t.Error("CloseAll should end processing")
	}
	for _, s := range []Source{entry, outer, inner} {
		if _, err := s.ReadLine(); !IsClosedStreamError(err) {
			t.Errorf("%s should be closed after CloseAll", s.Name())
		}
	}
}
