// prepp - the command line driver for the go-prepp text preprocessor
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/benjaminschreck/go-prepp/pkg/prepp"
)

// defineFlag collects repeatable -D name=value definitions.
type defineFlag []string

func (d *defineFlag) String() string {
	return strings.Join(*d, ",")
}

func (d *defineFlag) Set(value string) error {
	if !strings.Contains(value, "=") {
		return fmt.Errorf("expected name=value, got %q", value)
	}
	*d = append(*d, value)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("prepp", flag.ExitOnError)

	definesPath := fs.String("defines", "", "TOML file with initial bindings")
	output := fs.String("o", "", "Write output to a file instead of stdout")
	stateIn := fs.String("state-in", "", "Load initial bindings from a CBOR state file")
	stateOut := fs.String("state-out", "", "Write final bindings to a CBOR state file")
	interactive := fs.Bool("i", false, "Start interactive mode")
	verbose := fs.Bool("v", false, "Debug logging")
	var defines defineFlag
	fs.Var(&defines, "D", "Define an initial binding as name=value (repeatable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: prepp [options] file...\n\n")
		fmt.Fprintf(os.Stderr, "Preprocesses each file in order; bindings accumulated by one file are\n")
		fmt.Fprintf(os.Stderr, "visible to the next.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  prepp template.txt.in                  # Expand one template to stdout\n")
		fmt.Fprintf(os.Stderr, "  prepp -D version=1.4 -o out.c gen.in   # Define a binding, write to a file\n")
		fmt.Fprintf(os.Stderr, "  prepp -defines site.toml header.in     # Seed bindings from a TOML file\n")
		fmt.Fprintf(os.Stderr, "  prepp -state-out s.cbor a.in           # Persist bindings for a later run\n")
		fmt.Fprintf(os.Stderr, "  prepp -i                               # Interactive mode\n")
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	config := prepp.GetGlobalConfig()
	if *verbose {
		config.LogLevel = "debug"
	}

	// A prepp.toml found in or above the working directory supplies
	// project-wide settings; explicit flags win over it.
	manifest, err := FindManifest(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "prepp: %v\n", err)
		return 1
	}

	values := prepp.Bindings{}
	if manifest != nil {
		if manifest.LogLevel != "" && !*verbose {
			config.LogLevel = manifest.LogLevel
		}
		if manifest.MaxIncludeDepth > 0 {
			config.MaxIncludeDepth = manifest.MaxIncludeDepth
		}
		if *output == "" {
			*output = manifest.Output
		}
		mergeBindings(values, manifest.Defines)
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "prepp: %v\n", err)
		return 1
	}
	prepp.SetGlobalConfig(config)

	if *definesPath != "" {
		loaded, err := LoadDefines(*definesPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "prepp: %v\n", err)
			return 1
		}
		mergeBindings(values, loaded)
	}

	for _, def := range defines {
		name, value, _ := strings.Cut(def, "=")
		values[name] = value
	}

	if *stateIn != "" {
		state, err := loadState(*stateIn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "prepp: %v\n", err)
			return 1
		}
		mergeBindings(values, state)
	}

	engine := prepp.NewWithConfig(config)

	if *interactive {
		return runRepl(engine, values)
	}

	files := fs.Args()
	if len(files) == 0 {
		fs.Usage()
		return 2
	}

	sink, flush, err := openSink(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "prepp: %v\n", err)
		return 1
	}

	for _, file := range files {
		values, err = engine.Preprocess(file, values, sink)
		if err != nil {
			flush()
			fmt.Fprintf(os.Stderr, "prepp: %v\n", err)
			return 1
		}
	}
	if err := flush(); err != nil {
		fmt.Fprintf(os.Stderr, "prepp: %v\n", err)
		return 1
	}

	if *stateOut != "" {
		if err := saveState(*stateOut, values); err != nil {
			fmt.Fprintf(os.Stderr, "prepp: %v\n", err)
			return 1
		}
	}

	return 0
}

func mergeBindings(dst prepp.Bindings, src map[string]interface{}) {
	for k, v := range src {
		dst[k] = v
	}
}

// openSink returns a line sink writing to path, or to stdout when path is
// empty, together with a flush-and-close function.
func openSink(path string) (prepp.Sink, func() error, error) {
	if path == "" {
		return func(line string) { fmt.Println(line) }, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	w := bufio.NewWriter(f)
	sink := func(line string) {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	flush := func() error {
		if err := w.Flush(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return sink, flush, nil
}
