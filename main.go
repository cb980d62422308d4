package main

import (
	"os"

	"github.com/AJAY-DOMBALE-04/Placeme/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
