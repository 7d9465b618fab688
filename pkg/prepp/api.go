// Package prepp implements a generic line-oriented text preprocessor. It
// expands a directive language (conditional inclusion, block-scoped
// variable binding, iteration with body replay, nested file inclusion and
// template transclusion) embedded in an arbitrary text file, producing a
// sequence of fully substituted output lines.
//
// Basic Usage:
//
//	bindings, err := prepp.Preprocess("template.txt.in", prepp.Bindings{
//	    "version": "1.4.0",
//	}, func(line string) {
//	    fmt.Println(line)
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The returned bindings are the outermost scope frame after the run, so
// several files can be processed in sequence sharing accumulated state.
//
// Directive Syntax (sigil '#', line anchored, leading whitespace becomes
// block indent):
//
//	#include ["path"]          #inside "path"
//	#define [level] name ["value"]    #local [level] name ["value"]
//	#if name   #ifn name   #ifdef name   #ifndef name
//	#elif name  #elifn name  #elifdef name  #elifndef name
//	#else       #end
//	#for [var] ("literal" | name)
//	## interpolated-and-redispatched text
//	# literal comment text, still interpolated
//
// Plain lines are emitted after percent-style named interpolation:
// %(name)s placeholders with the usual width/precision/type modifiers,
// resolved against the active scope.
package prepp

import (
	"fmt"
	"time"
)

// Sink receives one fully interpolated output line per call, in document
// order.
type Sink func(line string)

func stdoutSink(line string) {
	fmt.Println(line)
}

// Engine drives preprocessing runs. A single Engine may run many files
// sequentially; concurrent runs need separate Engines.
type Engine struct {
	config *Config
	cache  *MatchCache
	logger *Logger
	now    time.Time
}

// New creates an engine with the global configuration.
func New() *Engine {
	return NewWithConfig(GetGlobalConfig())
}

// NewWithConfig creates an engine with a custom configuration.
func NewWithConfig(config *Config) *Engine {
	return &Engine{
		config: config,
		cache:  NewMatchCache(config.CacheMaxSize),
		logger: GetLogger(),
		now:    time.Now(),
	}
}

// Option represents a configuration option for the engine.
type Option func(*Engine)

// WithConfig returns an option that sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		e.config = config
		e.cache = NewMatchCache(config.CacheMaxSize)
	}
}

// WithLogger returns an option that sets the engine's logger.
func WithLogger(logger *Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock returns an option that fixes the timestamp used for the
// __DATE__ and __TIME__ bindings. Useful for reproducible output.
func WithClock(now time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewWithOptions creates a new engine with the specified options.
func NewWithOptions(opts ...Option) *Engine {
	engine := New()
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// defaults builds the frame 0 bindings for a fresh run. The reserved empty
// name is bound so conditional directives without an operand resolve to a
// defined, falsy value.
func (e *Engine) defaults() Bindings {
	return Bindings{
		"":        "",
		KeyIndent: "",
		KeyLevel:  0,
		KeyDate:   e.now.Format("Jan 02 2006"),
		KeyTime:   e.now.Format("15:04:05"),
	}
}

// Preprocess runs the file at path with the given initial bindings, sending
// every output line to sink (stdout echo when nil). It returns the
// outermost frame's bindings for chaining into a subsequent run.
func (e *Engine) Preprocess(path string, values Bindings, sink Sink) (Bindings, error) {
	src, err := OpenSource(path)
	if err != nil {
		return nil, NewMissingIncludeError(path, err)
	}
	return e.PreprocessSource(src, values, sink)
}

// PreprocessSource runs an already opened Source. The Source is owned by
// the run and closed when it drains or the run aborts.
func (e *Engine) PreprocessSource(src Source, values Bindings, sink Sink) (Bindings, error) {
	return e.newRun(src, values, sink).drive()
}

// DefaultEngine is the package-level engine used by the convenience
// functions below.
var DefaultEngine = New()

// Preprocess runs a file through the default engine.
func Preprocess(path string, values Bindings, sink Sink) (Bindings, error) {
	return DefaultEngine.Preprocess(path, values, sink)
}

// PreprocessSource runs an opened Source through the default engine.
func PreprocessSource(src Source, values Bindings, sink Sink) (Bindings, error) {
	return DefaultEngine.PreprocessSource(src, values, sink)
}
