package main

import (
	"os"

	"github.com/dietrichf/geocss/cmd/geocss/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
