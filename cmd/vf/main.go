// Command vf is the vocabfilter debug and maintenance CLI.
//
// Usage:
//
//	vf                      Show help
//	vf seed                 Load the sample dictionary into an empty database
//	vf categories           List categories with their vocab counts
//	vf query <steps...>     Drive the filter controller and print results
//	vf events               JSONL event log viewer
package main

import (
	"fmt"
	"os"
)

const usage = `vf - vocabfilter debug & maintenance CLI

Usage:
  vf <command> [flags]

Commands:
  seed         Load the sample dictionary into an empty database
  categories   List categories with their vocab counts
  query        Drive the filter controller and print results
  events       JSONL event log viewer

Environment:
  VOCABFILTER_DB     Database path (overrides config)
  VOCABFILTER_TRACE  Enable per-message tracing

Run 'vf <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "seed":
		runSeed()
	case "categories":
		runCategories()
	case "query":
		runQuery()
	case "events":
		runEvents()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "vf: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
