package prepp

import (
	"io"
	"path/filepath"
	"strings"
)

// run holds the mutable state of one preprocessing pass: the scope stack,
// the stream multiplexer, the most recent directive match (its indent feeds
// scope pushes) and the scalar ignoring depth for suppressed blocks.
type run struct {
	engine   *Engine
	stack    *ScopeStack
	mux      *streamMux
	match    *Match
	ignoring int
	sink     Sink
	logger   *Logger
}

func (e *Engine) newRun(entry Source, values Bindings, sink Sink) *run {
	base := e.defaults()
	for k, v := range values {
		base[k] = v
	}

	stack := NewScopeStack(base)
	stack.Push("", entry)

	if sink == nil {
		sink = stdoutSink
	}

	return &run{
		engine: e,
		stack:  stack,
		mux:    newStreamMux(entry, e.config.MaxIncludeDepth),
		sink:   sink,
		logger: e.logger,
	}
}

// drive pulls one line at a time until every stream has drained, returning
// the outermost frame's bindings on success. Any error aborts immediately;
// output already emitted stays emitted.
func (r *run) drive() (Bindings, error) {
	defer r.mux.CloseAll()

	debug := r.logger.IsDebugMode()

	for !r.mux.Done() {
		line, err := r.mux.Current().ReadLine()
		top := r.stack.Top()
		top[KeyLine] = top.line() + 1
		if err == io.EOF {
			if err := r.pop(); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		line = strings.TrimRight(line, " \t\r\n")
		if line == "" {
			if r.ignoring == 0 && r.engine.config.KeepBlankLines {
				r.sink("")
			}
			continue
		}

		// The loop only repeats for the redispatch directive, which
		// re-derives a fresh line without consuming input.
		for line != "" {
			m := r.engine.cache.Match(line)
			r.match = m

			if debug && m != nil && !m.Malformed {
				r.logger.WithFields(Fields{
					"file":      r.stack.Top().file(),
					"line":      r.stack.Top().line(),
					"directive": m.Kind.String(),
					"ignoring":  r.ignoring,
				}).Debug("directive")
			}

			redispatch, err := r.step(m, &line)
			if err != nil {
				return nil, err
			}
			if !redispatch {
				break
			}
		}
	}

	return r.stack.Bottom(), nil
}

// step executes one classified line. It mirrors a single prioritized
// dispatch chain; the order of the branches is semantically significant
// (end before nested-if counting, branch toggles before the generic
// suppressed-directive discard).
func (r *run) step(m *Match, line *string) (redispatch bool, err error) {
	top := r.stack.Top()

	switch {
	case m == nil && r.ignoring > 0:
		// suppressed text

	case m == nil:
		out, err := interpolate(*line, top)
		if err != nil {
			return false, err
		}
		r.sink(top.indent() + out)

	case m.Malformed:
		return false, NewMalformedDirectiveError(top.file(), top.line(), m.Consumed, *line)

	case m.Kind == DirectiveEnd:
		if r.ignoring > 0 {
			r.ignoring--
		}
		if r.ignoring == 0 {
			return false, r.pop()
		}

	case r.ignoring > 0 && (m.Kind.isConditionalStart() || m.Kind == DirectiveFor):
		// A block opening inside a suppressed body: no scope is pushed,
		// the matching end only decrements.
		r.ignoring++

	case r.ignoring <= 1 && m.Kind == DirectiveElse:
		if r.ignoring == 0 {
			r.ignoring = 1
		} else {
			r.ignoring = 0
		}

	case r.ignoring <= 1 && m.Kind.isElif():
		if r.ignoring == 0 {
			// An earlier branch already won.
			r.ignoring = 1
		} else {
			truth, err := r.truth(m)
			if err != nil {
				return false, err
			}
			if m.Kind.negated() == truth {
				r.ignoring = 1
			} else {
				r.ignoring = 0
			}
		}

	case r.ignoring > 0:
		// any other directive inside a suppressed body

	case m.Kind == DirectiveRedispatch:
		next, err := interpolate(m.Value, top)
		if err != nil {
			return false, err
		}
		*line = next
		return true, nil

	case m.Kind == DirectiveComment:
		out, err := interpolate(m.Value, top)
		if err != nil {
			return false, err
		}
		r.sink(top.indent() + out)

	case m.Kind == DirectiveInclude || m.Kind == DirectiveInside:
		return false, r.include(m)

	case m.Kind == DirectiveDefine || m.Kind == DirectiveLocal:
		level := 0
		if m.HasLevel {
			level = m.Level
		}
		if m.Kind == DirectiveDefine {
			// Persist through every block frame of the currently active
			// file: all frames except the explicit offset and the two
			// below the file's own frame.
			level = r.stack.Depth() - level - 2
		}
		raw := ""
		if m.HasValue {
			raw = unquote(m.Value)
		}
		return false, r.stack.Assign(m.Name, raw, level)

	case m.Kind == DirectiveFor:
		return false, r.doFor(m)

	case m.Kind.isConditionalStart():
		truth, err := r.truth(m)
		if err != nil {
			return false, err
		}
		if m.Kind.negated() == truth {
			r.ignoring = 1
		} else {
			r.ignoring = 0
		}
		// Push either way so the closing end always has a frame to pop.
		return false, r.push(parkOuter, nil, nil)
	}

	return false, nil
}

// truth evaluates a conditional directive against the active frame.
// def-forms test presence only; the plain forms test truthiness of the
// resolved value and fail on undefined names. A missing name operand
// resolves the reserved empty binding, which is always defined and falsy.
func (r *run) truth(m *Match) (bool, error) {
	top := r.stack.Top()
	if m.Kind.definedTest() {
		_, ok := top[m.Name]
		return ok, nil
	}
	v, ok := top[m.Name]
	if !ok {
		return false, NewUndefinedVariableError(m.Name)
	}
	return isTruthy(v), nil
}

// push creates a scope/stream pair: the scope frame extends the directive's
// indent, and the multiplexer parks the current stream into side. A nil
// next switches to a snapshot of the current stream so block bodies advance
// the shared cursor. A nil base inherits the active frame.
func (r *run) push(side parkSide, next Source, base Bindings) error {
	if next == nil {
		snap, err := r.mux.SnapshotCurrent()
		if err != nil {
			return err
		}
		if base == nil {
			base = r.stack.Top()
		}
		r.stack.PushFrom(base, r.match.Indent, nil)
		return r.mux.SwitchTo(snap, side)
	}
	if base == nil {
		base = r.stack.Top()
	}
	r.stack.PushFrom(base, r.match.Indent, next)
	return r.mux.SwitchTo(next, side)
}

// pop closes the current stream, discards its frame and resumes the most
// recently parked outer stream.
func (r *run) pop() error {
	if err := r.stack.Pop(); err != nil {
		return err
	}
	return r.mux.ResumePrevious()
}

// include handles both inclusion directives. A named path opens a new file
// relative to the current stream's directory; a bare directive resumes the
// most recently parked transclusion stream. Nested inclusion parks into
// outer (resumed automatically at end of file), transclusion parks into
// inner (resumed only by a later bare include).
func (r *run) include(m *Match) error {
	side := parkOuter
	if m.Kind == DirectiveInside {
		side = parkInner
	}

	var next Source
	if m.HasName {
		path := unquote(m.Name)
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(r.mux.Current().Name()), path)
		}
		opened, err := OpenSource(path)
		if err != nil {
			return NewMissingIncludeError(path, err)
		}
		next = opened
	} else {
		resumed, err := r.mux.PopInner()
		if err != nil {
			return err
		}
		next = resumed
	}

	return r.push(side, next, nil)
}

// doFor resolves the iterable and pushes one snapshot/frame pair per
// element in reverse order, so the first element's replay cursor ends up on
// top. Every iteration frame inherits the bindings active at the #for line
// and resets line accounting to the snapshot. An empty iterable pushes a
// single suppressed placeholder pair so the matching end stays uniform.
func (r *run) doFor(m *Match) error {
	value, err := r.forIterable(m)
	if err != nil {
		return err
	}

	items, err := toIterable(value)
	if err != nil {
		return NewInvalidForIterableError(m.Value, err)
	}

	if len(items) == 0 {
		r.ignoring = 1
		return r.push(parkOuter, nil, nil)
	}

	base := r.stack.Top()
	original := r.mux.Current()
	for i := len(items) - 1; i >= 0; i-- {
		snap, err := NewSnapshotSource(original)
		if err != nil {
			return err
		}
		if err := r.push(parkOuter, snap, base); err != nil {
			return err
		}
		top := r.stack.Top()
		if m.HasName {
			top[m.Name] = items[i]
		} else {
			merged, ok := items[i].(map[string]interface{})
			if !ok {
				return NewInvalidForIterableError(m.Value, nil)
			}
			for k, v := range merged {
				top[k] = v
			}
		}
	}
	return nil
}

// forIterable resolves the directive payload: a quoted payload is a
// literal, a bare name is looked up in the active frame and re-parsed when
// its value is textual.
func (r *run) forIterable(m *Match) (interface{}, error) {
	raw := m.Value
	if strings.HasPrefix(raw, `"`) {
		v, err := parseLiteral(unquote(raw))
		if err != nil {
			return nil, NewInvalidForIterableError(raw, err)
		}
		return v, nil
	}

	v, err := r.stack.Lookup(raw)
	if err != nil {
		return nil, err
	}
	if s, ok := v.(string); ok {
		parsed, err := parseLiteral(s)
		if err != nil {
			return nil, NewInvalidForIterableError(s, err)
		}
		return parsed, nil
	}
	return v, nil
}

// unquote strips the surrounding quote characters a directive capture
// retains from the grammar.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
