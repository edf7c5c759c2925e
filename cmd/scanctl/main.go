package main

import (
	"os"

	"ScanCheckout/cmd/scanctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
