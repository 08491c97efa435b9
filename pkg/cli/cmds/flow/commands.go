package flow

import (
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/modem.go/pkg/cli/sh"
	"github.com/robotalks/modem.go/pkg/mif/flowctl"
)

func report(c *ishell.Context, changed bool) {
	if changed {
		c.Println("OK")
		return
	}
	c.Println("unchanged")
}

var (
	// SuspendCmd injects CMD_SUSPEND.
	SuspendCmd = ishell.Cmd{
		Name: "suspend",
		Help: "[LINK]",
		Func: func(c *ishell.Context) {
			link, err := sh.LinkArg(c, 0)
			if err != nil {
				c.Err(err)
				return
			}
			link.Flow.HandleCommand(flowctl.CmdSuspend)
			c.Println("OK")
		},
	}

	// ResumeCmd injects CMD_RESUME.
	ResumeCmd = ishell.Cmd{
		Name: "resume",
		Help: "[LINK]",
		Func: func(c *ishell.Context) {
			link, err := sh.LinkArg(c, 0)
			if err != nil {
				c.Err(err)
				return
			}
			link.Flow.HandleCommand(flowctl.CmdResume)
			c.Println("OK")
		},
	}

	// FeedCmd decodes raw control bytes as received from CP.
	FeedCmd = ishell.Cmd{
		Name: "feed",
		Help: "HEX...",
		Func: sh.MustHaveLink(func(c *ishell.Context) {
			data, err := sh.ParseHex(c.Args...)
			if err != nil {
				c.Err(err)
				return
			}
			n := flowctl.NewDecoder(sh.ShellFrom(c).Link.Flow).Decode(data)
			c.Printf("%d commands\n", n)
		}),
	}

	// StopChannelCmd stops one channel.
	StopChannelCmd = ishell.Cmd{
		Name: "stop",
		Help: "CHANNEL [LINK]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("CHANNEL required"))
				return
			}
			ch, err := sh.ParseChannel(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			link, err := sh.LinkArg(c, 1)
			if err != nil {
				c.Err(err)
				return
			}
			report(c, link.Flow.StopChannel(ch))
		},
	}

	// WakeChannelCmd resumes one channel.
	WakeChannelCmd = ishell.Cmd{
		Name: "wake",
		Help: "CHANNEL [LINK]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("CHANNEL required"))
				return
			}
			ch, err := sh.ParseChannel(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			link, err := sh.LinkArg(c, 1)
			if err != nil {
				c.Err(err)
				return
			}
			report(c, link.Flow.ResumeChannel(ch))
		},
	}

	// TxLinkCmd moves raw devices onto a link.
	TxLinkCmd = ishell.Cmd{
		Name: "txlink",
		Help: "[LINK]",
		Func: func(c *ishell.Context) {
			link, err := sh.LinkArg(c, 0)
			if err != nil {
				c.Err(err)
				return
			}
			if err := sh.ShellFrom(c).MIF.RawDevsSetTxLink(link.Type); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		},
	}
)

func init() {
	sh.AddCmds(
		&SuspendCmd,
		&ResumeCmd,
		&FeedCmd,
		&StopChannelCmd,
		&WakeChannelCmd,
		&TxLinkCmd,
	)
}
