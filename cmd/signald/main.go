package main

import (
	"os"

	"momentum-signalv1/cmd/signald/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
