package main

import (
	"os"

	"github.com/dp2pwn/reconspider/cmd"
	"github.com/dp2pwn/reconspider/core"
)

func main() {
	if err := cmd.Execute(); err != nil {
		core.Logger.Error(err)
		os.Exit(1)
	}
}
