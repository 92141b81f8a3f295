package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"tomgalvin.uk/monoform/cmd"
)

const usage = `usage: monoform <command> [flags]

commands:
  serve   run the HTTP API
  gen     convert an image file to a C header
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = cmd.Serve(os.Args[2:])
	case "gen":
		err = cmd.Gen(os.Args[2:], os.Stdout)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "monoform: %v\n", err)
		os.Exit(1)
	}
}
