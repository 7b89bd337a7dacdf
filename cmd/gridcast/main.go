// cmd/gridcast/main.go
package main

import (
	gridcast "github.com/mwiater/gridcast/internal/cli"
)

// Set by -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	setVersionInfo = gridcast.SetVersionInfo
	executeCmd     = gridcast.Execute
)

// main starts the gridcast CLI by delegating to the cobra root command.
func main() {
	setVersionInfo(version, commit, date)
	executeCmd()
}
