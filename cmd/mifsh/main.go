package main

import (
	"github.com/robotalks/modem.go/pkg/cli/sh"
	"github.com/robotalks/modem.go/pkg/mif/env"

	_ "github.com/robotalks/modem.go/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
