package main

import (
	"os"

	"github.com/fourkites/rca-core/cmd/rca/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
