package main

import (
	"fmt"
	"os"

	"github.com/example/buysell/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "buysell:", err)
		os.Exit(1)
	}
}
