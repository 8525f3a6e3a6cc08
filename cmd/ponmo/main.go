package main

import (
	"os"

	"github.com/ponmo-books/ponmo/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
