package main

import (
	"os"

	"github.com/rpggio/tumorboard/internal/cli"
)

func main() {
	if err := cli.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
