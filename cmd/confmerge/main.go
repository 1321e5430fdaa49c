package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
