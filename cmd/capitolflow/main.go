// Command capitolflow runs the congressional-disclosure trading-signal
// pipeline: fetch, transform, load, score, and backtest, wired together
// the way the teacher wires its own cobra-based CLI.
package main

import (
	"fmt"
	"os"

	"github.com/sawpanic/capitolflow/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
