// Command commissaire-bootstrap creates the commissaire namespace in the
// configured store and prints the resulting tree.
package main

import (
	"fmt"
	"os"

	"github.com/projectatomic/commissaire-bootstrap/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
