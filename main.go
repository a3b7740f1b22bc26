package main

import (
	"os"

	"github.com/Acid-base/researcher/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
