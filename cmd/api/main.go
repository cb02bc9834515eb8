package main

import (
	"fmt"
	"os"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	root := newRootCommand()

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
