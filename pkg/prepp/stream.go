package prepp

import "fmt"

// parkSide names the stack a paused Source is parked into. Resumption
// always draws from the outer stack; a Source parked inner stays paused
// until a bare #include explicitly pops it.
type parkSide int

const (
	parkOuter parkSide = iota
	parkInner
)

// streamMux owns the single current Source plus the two stacks of parked
// Sources that make nested inclusion, transclusion and loop replay work.
type streamMux struct {
	current  Source
	outer    []Source
	inner    []Source
	maxDepth int
}

func newStreamMux(entry Source, maxDepth int) *streamMux {
	return &streamMux{current: entry, maxDepth: maxDepth}
}

// Current returns the Source being read, or nil once processing has ended.
func (m *streamMux) Current() Source {
	return m.current
}

// Done reports whether all streams have drained.
func (m *streamMux) Done() bool {
	return m.current == nil
}

// SwitchTo parks the current Source into the named stack and makes next
// current. The depth guard bounds simultaneously open include files only;
// snapshot replay cursors share an already-open file and may park in any
// number.
func (m *streamMux) SwitchTo(next Source, side parkSide) error {
	if m.maxDepth > 0 && !isSnapshot(next) && m.fileCount() >= m.maxDepth {
		return fmt.Errorf("maximum include depth exceeded: %d", m.maxDepth)
	}
	if side == parkInner {
		m.inner = append(m.inner, m.current)
	} else {
		m.outer = append(m.outer, m.current)
	}
	m.current = next
	return nil
}

// ResumePrevious closes the current Source and restores the most recently
// parked outer Source. When the outer stack is empty the current Source
// becomes nil and processing ends; Sources still parked inner are abandoned
// resume markers, not consumed.
func (m *streamMux) ResumePrevious() error {
	if m.current != nil {
		if err := m.current.Close(); err != nil {
			return err
		}
	}
	if len(m.outer) == 0 {
		m.current = nil
		return nil
	}
	m.current = m.outer[len(m.outer)-1]
	m.outer = m.outer[:len(m.outer)-1]
	return nil
}

func isSnapshot(s Source) bool {
	_, ok := s.(*snapshotSource)
	return ok
}

// fileCount returns how many distinct files are open across the current
// Source and both parked stacks.
func (m *streamMux) fileCount() int {
	n := 0
	if m.current != nil && !isSnapshot(m.current) {
		n++
	}
	for _, s := range m.outer {
		if !isSnapshot(s) {
			n++
		}
	}
	for _, s := range m.inner {
		if !isSnapshot(s) {
			n++
		}
	}
	return n
}

// PopInner removes and returns the most recently parked transclusion
// Source.
func (m *streamMux) PopInner() (Source, error) {
	if len(m.inner) == 0 {
		return nil, ErrEmptyTransclusionStack
	}
	src := m.inner[len(m.inner)-1]
	m.inner = m.inner[:len(m.inner)-1]
	return src, nil
}

// SnapshotCurrent produces a lazy replay cursor over the current Source.
func (m *streamMux) SnapshotCurrent() (Source, error) {
	return NewSnapshotSource(m.current)
}

// CloseAll releases every owned Source. Used when a run aborts; close
// errors at that point are not actionable.
func (m *streamMux) CloseAll() {
	if m.current != nil {
		m.current.Close()
		m.current = nil
	}
	for _, s := range m.outer {
		s.Close()
	}
	m.outer = nil
	for _, s := range m.inner {
		s.Close()
	}
	m.inner = nil
}
