// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/modem.go/pkg/cli/cmds/flow" // flow control commands
	_ "github.com/robotalks/modem.go/pkg/cli/cmds/logs" // log store commands
)
