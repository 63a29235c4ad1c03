// Command sonido-scope is the entry point of the sonido-scope CLI.
package main

import (
	"os"

	"github.com/RyanBlaney/sonido-scope/cmd"
	"github.com/RyanBlaney/sonido-scope/logging"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logging.Error(err, "command failed")
		os.Exit(1)
	}
}
