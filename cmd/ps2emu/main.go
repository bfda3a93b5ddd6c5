package main

import (
	"os"

	"github.com/SmitUplenchwar2687/ps2emu/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
