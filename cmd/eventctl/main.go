package main

import (
	"os"

	"github.com/metaa35/qrwedding-sub000/internal/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
