package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/benjaminschreck/go-prepp/pkg/prepp"
)

const (
	promptMain  = ">> "
	promptCont  = ".. "
	historyFile = ".prepp_history"
)

// runRepl reads directive and template lines interactively. Input is
// buffered until every opened block has its matching #end, then the buffer
// runs through the engine; bindings survive across submissions.
func runRepl(engine *prepp.Engine, values prepp.Bindings) int {
	fmt.Println("prepp interactive mode. Type :quit to exit.")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		buf, ok := readBalanced(ln)
		if !ok {
			fmt.Println()
			return 0
		}

		trimmed := strings.TrimSpace(buf)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit", ":q":
				return 0
			case ":bindings":
				for k, v := range values {
					if k != "" {
						fmt.Printf("%s = %v\n", k, v)
					}
				}
			default:
				fmt.Println("unknown command. Type :quit to exit.")
			}
			continue
		}

		src := prepp.NewReaderSource("(repl)", strings.NewReader(buf))
		next, err := engine.PreprocessSource(src, values, func(line string) {
			fmt.Println(line)
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			continue
		}
		values = next
		ln.AppendHistory(strings.ReplaceAll(strings.TrimRight(buf, "\n"), "\n", " "))
	}
}

// readBalanced accumulates input lines until every block-opening directive
// is matched by an #end, switching to the continuation prompt while a block
// is open. Returns false when input is closed.
func readBalanced(ln *liner.State) (string, bool) {
	var b strings.Builder
	depth := 0

	for {
		prompt := promptMain
		if depth > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if err != nil {
			return "", false
		}

		b.WriteString(line)
		b.WriteByte('\n')
		depth += blockDelta(line)
		if depth <= 0 {
			return b.String(), true
		}
	}
}

// blockDelta reports how a single line changes the open-block depth.
func blockDelta(line string) int {
	m := prepp.MatchLine(strings.TrimRight(line, " \t"))
	if m == nil || m.Malformed {
		return 0
	}
	switch m.Kind {
	case prepp.DirectiveIf, prepp.DirectiveIfNot, prepp.DirectiveIfDef,
		prepp.DirectiveIfNotDef, prepp.DirectiveFor:
		return 1
	case prepp.DirectiveEnd:
		return -1
	}
	return 0
}
