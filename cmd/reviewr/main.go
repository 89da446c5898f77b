package main

import (
	"os"

	"github.com/clay-good/reviewr/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
