package main

import (
	"os"

	"github.com/bukudapur/bukudapur/cmd/bukudapur/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
