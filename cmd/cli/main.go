// Command mapgen is the admin CLI for the mapgen API.
package main

import (
	"fmt"
	"os"

	"github.com/climateview/mapgen/cmd/cli/commands"
)

func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
