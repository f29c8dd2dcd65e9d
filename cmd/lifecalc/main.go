package main

import (
	"os"

	"github.com/parcr/lifeactuary/cmd/lifecalc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
