// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the fenec CLI: build a code graph from a
// repository, summarize it hierarchically via an LLM, and expose the
// resulting corpus for retrieval-augmented question answering.
//
// Usage:
//
//	fenec init                     Create .fenec/project.yaml configuration
//	fenec index                    Parse, resolve and summarize the repository
//	fenec update [--all]           Resummarize only what changed since last run
//	fenec [--json] status          Show project status
//	fenec query <entity-id>        Look up one entity in the graph store
//	fenec ask "<question>"         Answer a question from the summarized corpus
//	fenec reset                    Delete local project data
//	fenec serve                    Serve retrieval over HTTP
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/fenec/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags holds the flags shared by every subcommand.
type GlobalFlags struct {
	JSON    bool
	NoColor bool
	Verbose int
	Quiet   bool
}

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", "", "Path to .fenec/project.yaml (default: ./.fenec/project.yaml)")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format (for applicable commands)")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (-v for info, -vv for debug)")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress non-essential output (progress, info messages)")
	)

	// Stop parsing at the first non-flag argument so subcommand flags like
	// "update --all" pass through untouched.
	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `fenec - semantic code-graph summarization and retrieval engine

Ingests a repository, builds a code graph, summarizes it hierarchically via
an LLM, and exposes the corpus for retrieval-augmented question answering.

Usage:
  fenec <command> [options]

Commands:
  init          Create .fenec/project.yaml configuration
  index         Parse, resolve and summarize the repository from scratch
  update        Resummarize only what changed since the last run
  status        Show project status
  query         Look up one entity in the graph store
  ask           Answer a question from the summarized corpus
  reset         Delete local project data
  serve         Serve retrieval over HTTP

Global Options:
  --json            Output in JSON format
  --no-color        Disable color output (respects NO_COLOR env var)
  -v, --verbose     Increase verbosity (-v for info, -vv for debug)
  -q, --quiet       Suppress non-essential output
  -c, --config      Path to .fenec/project.yaml
  -V, --version     Show version and exit

Examples:
  fenec init
  fenec index
  fenec update --all
  fenec ask "how does the summarization engine handle cycles?"

For detailed command help: fenec <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("fenec version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}

	if *quiet && *verbose > 0 {
		fmt.Fprintln(os.Stderr, "Error: cannot use --quiet and --verbose together")
		os.Exit(1)
	}

	// JSON mode auto-enables quiet so progress bars don't corrupt the output.
	if *jsonOutput {
		*quiet = true
	}

	globals := GlobalFlags{
		JSON:    *jsonOutput,
		NoColor: *noColor,
		Verbose: *verbose,
		Quiet:   *quiet,
	}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, globals)
	case "index":
		runIndex(cmdArgs, *configPath, globals)
	case "update":
		runUpdate(cmdArgs, *configPath, globals)
	case "status":
		runStatus(cmdArgs, *configPath, globals)
	case "query":
		runQuery(cmdArgs, *configPath, globals)
	case "ask":
		runAsk(cmdArgs, *configPath, globals)
	case "reset":
		runReset(cmdArgs, *configPath, globals)
	case "serve":
		runServe(cmdArgs, *configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
