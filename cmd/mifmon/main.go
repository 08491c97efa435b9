package main

import (
	"flag"
	"io"
	"log"
	"os"
	"strings"

	"github.com/robotalks/modem.go/pkg/comm/mqtt"
	"github.com/robotalks/modem.go/pkg/comm/stream"
	"github.com/robotalks/modem.go/pkg/dump"
)

var (
	mqttURL  = "mqtt://localhost:1883/mif/"
	dumpFile string
)

func init() {
	if val := os.Getenv("MIF_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&dumpFile, "f", dumpFile, "Print dumps from a file instead.")
}

func printDump(d *dump.Dump) {
	recs, err := d.Records()
	log.Printf("%s/%s: dump %s (%d records)", d.Node, d.Machine, d.Session, len(recs))
	for _, rec := range recs {
		log.Println(dump.FormatRecord(rec))
	}
	if err != nil {
		log.Printf("%s: %v", d.Session, err)
	}
}

func handlePacket(a *dump.Assembler, source string, pkt []byte) {
	chunk, err := dump.Decode(pkt)
	if err != nil {
		log.Printf("%s: bad chunk: %v", source, err)
		return
	}
	d, err := a.Add(chunk)
	if err != nil {
		log.Printf("%s: %v", source, err)
		return
	}
	if d != nil {
		printDump(d)
	}
}

func readFile(a *dump.Assembler) {
	f, err := os.Open(dumpFile)
	if err != nil {
		log.Fatalln(err)
	}
	defer f.Close()
	for {
		pkt, err := stream.ReadPacketFrom(f)
		if err == io.EOF {
			return
		}
		if err != nil {
			log.Fatalln(err)
		}
		handlePacket(a, dumpFile, pkt)
	}
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	a := dump.NewAssembler()
	if dumpFile != "" {
		readFile(a)
		return
	}

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}

	q.Sub("#", func(topic string, payload []byte) {
		switch {
		case strings.HasSuffix(topic, "/"+mqtt.TopicMeta):
			log.Printf("%s: %s", topic, string(payload))
		case strings.HasSuffix(topic, "/"+mqtt.TopicDump):
			handlePacket(a, topic, payload)
		}
	})
	<-(chan struct{})(nil)
}
