package main

import (
	"github.com/scoutdata/parcelscout/internal/cli"
)

func main() {
	cli.Execute()
}
