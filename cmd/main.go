package main

import (
	"os"

	"github.com/ABFerraz00/mandacafe/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
