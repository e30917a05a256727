package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the traits release.
const Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/traits"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the traits version",
		Args:  wrapArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "traits v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
