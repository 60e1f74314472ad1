package main

import (
	"os"

	"github.com/kirillkom/bazaar-search/cmd/bazaarctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
