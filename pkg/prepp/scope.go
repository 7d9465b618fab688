package prepp

import (
	"errors"
	"path/filepath"
)

// Reserved binding names managed by the engine.
const (
	KeyFile   = "__FILE__"
	KeyLine   = "__LINE__"
	KeyLevel  = "__LEVEL__"
	KeyIndent = "__INDENT__"
	KeyDate   = "__DATE__"
	KeyTime   = "__TIME__"
)

// Bindings holds the variable environment visible to one scope frame.
// Values are strings, ints, floats, bools, []interface{} or
// map[string]interface{}.
type Bindings map[string]interface{}

func (b Bindings) clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

func (b Bindings) indent() string {
	s, _ := b[KeyIndent].(string)
	return s
}

func (b Bindings) file() string {
	s, _ := b[KeyFile].(string)
	return s
}

func (b Bindings) line() int {
	n, _ := b[KeyLine].(int)
	return n
}

// ScopeStack is an ordered sequence of binding frames. Frame 0 holds the
// process-wide defaults merged with caller-supplied values; every further
// frame is a by-value copy of its parent at push time, so mutating a child
// never affects a parent.
type ScopeStack struct {
	frames []Bindings
}

// NewScopeStack creates a stack whose bottom frame is base itself.
func NewScopeStack(base Bindings) *ScopeStack {
	return &ScopeStack{frames: []Bindings{base}}
}

// Depth returns the number of frames on the stack.
func (s *ScopeStack) Depth() int {
	return len(s.frames)
}

// Top returns the active frame.
func (s *ScopeStack) Top() Bindings {
	return s.frames[len(s.frames)-1]
}

// Bottom returns frame 0, the outermost bindings returned to the caller.
func (s *ScopeStack) Bottom() Bindings {
	return s.frames[0]
}

// Push clones the top frame, extends __INDENT__ by indent and pushes the
// clone. When src is non-nil the new frame is rebound to that source:
// __FILE__ becomes its absolute path, __LINE__ resets to 0 and __LEVEL__
// becomes the new nesting depth.
func (s *ScopeStack) Push(indent string, src Source) {
	s.PushFrom(s.Top(), indent, src)
}

// PushFrom is Push with an explicit base frame; loop iterations all inherit
// the frame active at the #for line, not the previously pushed iteration.
func (s *ScopeStack) PushFrom(base Bindings, indent string, src Source) {
	frame := base.clone()
	frame[KeyIndent] = frame.indent() + indent
	s.frames = append(s.frames, frame)
	if src != nil {
		abs, err := filepath.Abs(src.Name())
		if err != nil {
			abs = src.Name()
		}
		frame[KeyFile] = abs
		frame[KeyLine] = 0
		frame[KeyLevel] = len(s.frames) - 1
	}
}

// Pop removes the top frame.
func (s *ScopeStack) Pop() error {
	if len(s.frames) <= 1 {
		return errors.New("scope stack underflow")
	}
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

// Lookup resolves name in the active frame.
func (s *ScopeStack) Lookup(name string) (interface{}, error) {
	v, ok := s.Top()[name]
	if !ok {
		return nil, NewUndefinedVariableError(name)
	}
	return v, nil
}

// Assign writes the raw value into every frame whose distance from the top
// is at most level (0 = top only). The raw value is interpolated against
// each target frame separately, so a redefinition may capture per-frame
// state. A negative level assigns nothing.
func (s *ScopeStack) Assign(name, raw string, level int) error {
	for dist := 0; dist <= level && dist < len(s.frames); dist++ {
		frame := s.frames[len(s.frames)-1-dist]
		value, err := interpolate(raw, frame)
		if err != nil {
			return err
		}
		frame[name] = value
	}
	return nil
}
