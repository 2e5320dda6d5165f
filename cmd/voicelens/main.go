package main

import (
	"os"

	"github.com/voicelens/voicelens/cmd/voicelens/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
