package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		printer{out: os.Stdout, err: os.Stderr}.error("%v", err)
		os.Exit(1)
	}
}
