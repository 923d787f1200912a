package main

import (
	"os"

	"github.com/MariannaR/edgeTransport/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
