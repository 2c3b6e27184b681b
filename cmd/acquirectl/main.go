// Command acquirectl inspects a running acquired daemon over its status API.
package main

import (
	"fmt"
	"os"

	"github.com/marmos91/acquire/cmd/acquirectl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
