package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/registry"
)

func NewCmdFunctions() *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "Describe the proximity functions and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, e := range registry.Default().Describe() {
				fmt.Fprintf(out, "%s %s\n%s\n", e.Kind, e.Name, e.Description)
			}
			return nil
		},
	}
}
