package main

import (
	"os"

	"github.com/seedit/seedit-challenge/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
