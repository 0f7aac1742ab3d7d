package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the macrostore release version.
const Version = "0.3.0"

const modulePath = "github.com/mesh-intelligence/macrostore"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the macrostore version",
		// No config or storage is needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "macrostore v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
