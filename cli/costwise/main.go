package main

import (
	"os"

	costwisecmder "github.com/costwise/costwise/cmd/costwise"
)

func main() {
	cmd := costwisecmder.NewCostwiseCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
