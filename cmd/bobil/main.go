// Bobil controls a campervan diesel heater through its embedded web server.
//
// It reads the heater's status page, switches the air, water and combined
// heating circuits, steps the target temperature, and can run a small HTTP
// gateway with a WebSocket stream and Prometheus metrics.
//
// Usage:
//
//	bobil [command] [flags]
//
// See 'bobil --help' for available commands.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(newApp(os.Stdin, os.Stdout)).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
