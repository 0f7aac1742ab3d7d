// Command macrostore manages the local nutrition tracker data store.
package main

import (
	"os"

	"github.com/mesh-intelligence/macrostore/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
