package main

import (
	"os"

	"github.com/mkendall/drover/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
