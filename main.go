package main

import (
	"os"

	"github.com/tbessias/modkit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
