// Command docrag builds and serves a semantic-search index over the
// ioBroker documentation corpus.
package main

import (
	"fmt"
	"os"
)

const version = "1.0.0"

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if len(args) < 2 {
		printUsage()
		return 1
	}
	switch args[1] {
	case "ingest":
		return runIngest(args[2:])
	case "serve":
		return runServe(args[2:])
	case "query":
		return runQuery(args[2:])
	case "stats":
		return runStats(args[2:])
	case "mcp":
		return runMCP(args[2:])
	case "config":
		return runConfig(args[2:])
	case "version", "-v", "--version":
		fmt.Printf("docrag version %s\n", version)
		return 0
	case "help", "-h", "--help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[1])
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Println(`docrag <command> [options]

Commands:
  ingest  [--config <path>] [--reset] [--progress]
  serve   [--config <path>]
  query   --q <text> [--top 5] [--lang en|de] [--type doc|code|api|config] [--mode vector|text|mixed] [--prompt] [--json]
  stats   [--config <path>]
  mcp     [--config <path>]
  config  init
  version`)
}
