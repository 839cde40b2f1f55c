package main

import (
	"os"

	"github.com/zefrenchwan/egonet.git/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
