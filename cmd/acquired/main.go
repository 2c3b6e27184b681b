// Command acquired hosts the acquisition engine's collaborator backends
// and HTTP surfaces.
package main

import (
	"fmt"
	"os"

	"github.com/marmos91/acquire/cmd/acquired/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
