package logs

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/modem.go/pkg/cli/sh"
	"github.com/robotalks/modem.go/pkg/comm/file"
	"github.com/robotalks/modem.go/pkg/dump"
	"github.com/robotalks/modem.go/pkg/mif/env"
	"github.com/robotalks/modem.go/pkg/mif/logstore"
)

var directions = map[string]logstore.Kind{
	"rl2ap": logstore.KindIPCRL2AP,
	"ap2cp": logstore.KindIPCAP2CP,
	"cp2ap": logstore.KindIPCCP2AP,
	"ap2rl": logstore.KindIPCAP2RL,
}

var (
	// LogCmd appends a text record.
	LogCmd = ishell.Cmd{
		Name: "log",
		Help: "TEXT...",
		Func: func(c *ishell.Context) {
			sh.ShellFrom(c).MIF.Log.Logf("%s", strings.Join(c.Args, " "))
		},
	}

	// IPCCmd appends an IPC record.
	IPCCmd = ishell.Cmd{
		Name: "ipc",
		Help: "rl2ap|ap2cp|cp2ap|ap2rl HEX...",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("direction required"))
				return
			}
			dir, ok := directions[strings.ToLower(c.Args[0])]
			if !ok {
				c.Err(fmt.Errorf("invalid direction %q", c.Args[0]))
				return
			}
			data, err := sh.ParseHex(c.Args[1:]...)
			if err != nil {
				c.Err(err)
				return
			}
			sh.ShellFrom(c).MIF.Log.LogIPC(dir, data)
		},
	}

	// MarkCmd appends a wall-clock marker.
	MarkCmd = ishell.Cmd{
		Name: "mark",
		Help: "",
		Func: func(c *ishell.Context) {
			sh.ShellFrom(c).MIF.Log.LogTime(time.Now(), nil)
		},
	}

	// RecordsCmd prints the newest records.
	RecordsCmd = ishell.Cmd{
		Name:    "records",
		Aliases: []string{"r"},
		Help:    "[COUNT]",
		Func: func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			recs := s.MIF.Log.Records()
			if len(c.Args) > 0 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil || n < 0 {
					c.Err(fmt.Errorf("invalid COUNT %q", c.Args[0]))
					return
				}
				if n < len(recs) {
					recs = recs[len(recs)-n:]
				}
			}
			lines := make([]string, 0, len(recs))
			for _, rec := range recs {
				lines = append(lines, dump.FormatRecord(rec))
			}
			s.Output(c, lines, func() {
				for _, line := range lines {
					c.Println(line)
				}
			})
		},
	}

	// StatsCmd prints log store counters.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "",
		Func: func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			stats := s.MIF.Log.Stats()
			s.Output(c, stats, func() {
				c.Printf("slots=%d cursor=%d appends=%d truncations=%d rejected=%d\n",
					s.MIF.Log.Capacity(), s.MIF.Log.Cursor(), stats.Appends, stats.Truncations, stats.Rejected)
			})
		},
	}

	// DumpCmd harvests the log store into a dump file.
	DumpCmd = ishell.Cmd{
		Name: "dump",
		Help: "FILE",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("FILE required"))
				return
			}
			s := sh.ShellFrom(c)
			w := file.NewWriter(file.Config{Path: c.Args[0]})
			defer w.Close()
			session, err := dump.NewHarvester(s.MIF.Log, s.Config.NodeID, env.MachineID()).Harvest(w)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(session)
		},
	}
)

func init() {
	sh.AddCmds(
		&LogCmd,
		&IPCCmd,
		&MarkCmd,
		&RecordsCmd,
		&StatsCmd,
		&DumpCmd,
	)
}
