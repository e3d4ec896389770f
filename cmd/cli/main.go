package main

import (
	"os"

	"github.com/skillcred/skillcred/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
