package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	fx "github.com/robotalks/modem.go/pkg/framework"
	"github.com/robotalks/modem.go/pkg/mif/env"
	"github.com/robotalks/modem.go/pkg/node"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()

	conf := env.NewConfig()
	if err := conf.LoadDefaultFile(); err != nil {
		log.Fatalln(err)
	}
	n, err := node.New(conf)
	if err != nil {
		log.Fatalln(err)
	}
	if len(n.Runnables()) == 0 {
		log.Fatalln("nothing to run, set -control, -mqtt, -dump-file or -dump-listen")
	}
	n.MIF.Log.Logf("mifd %s started", conf.NodeID)
	if err := fx.NewRunner().HandleSignals().Go(n.Runnables()...).Wait(); err != nil {
		log.Fatalln(err)
	}
}
