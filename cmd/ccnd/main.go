// Command ccnd is the content-centric networking forwarding daemon's
// entry point, mirroring fw/cmd/yanfd/main.go's one-line shape: all
// real work lives in package cmd.
package main

import (
	"fmt"
	"os"

	"github.com/ccnd-go/ccnd/cmd"
)

func main() {
	// spec.md §7: "1 on startup failure (cannot create listener)".
	if err := cmd.CmdCCND.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
