package main

// Command wiring lives in internal/cli:
// - root.go     (Config, ConfigFromEnv, Run, command tree)
// - serve.go    (relay wiring, companion handlers, graceful shutdown)
// - api.go      (action, status, devices over the HTTP API)
// - prefs.go    (local preference store commands)
// - format.go   (terminal rendering)
// - env.go      (envStr, envBool, envInt)

import (
	"fmt"
	"os"

	"wearrelay/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
