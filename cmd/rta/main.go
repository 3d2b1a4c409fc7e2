// Command rta is the repetitive task batch engine CLI and server.
package main

import "github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/internal/cmd"

// Injected at build time via -ldflags.
var (
	version   = "dev"
	commit    = "HEAD"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)
	cmd.Execute()
}
