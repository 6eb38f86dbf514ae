package main

import (
	"fmt"
	"os"

	"github.com/nilaychugh/summer-of-bitcoin/cmd/blockminer"
	"github.com/ordishs/gocore"
)

// Name used by build script for the binaries. (Please keep on single line)
const progname = "blockminer"

// Version & commit strings injected at build with -ldflags -X...
var version string
var commit string

func init() {
	gocore.SetInfo(progname, version, commit)
}

func main() {
	if err := blockminer.Start(os.Args, version, commit); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progname, err)
		os.Exit(1)
	}
}
