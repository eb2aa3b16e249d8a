package main

import (
	"os"

	"github.com/msto63/bexpr/cmd/bexpr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
