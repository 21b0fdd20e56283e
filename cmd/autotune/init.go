package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/autotune-core/internal/wizard"
	"github.com/GoSim-25-26J-441/autotune-core/pkg/config"
)

func newInitCmd(app *cli) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a parameter description interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			desc, err := wizard.New(app.in, app.out).Description()
			if err != nil {
				return err
			}
			if err := config.SaveDescription(output, desc); err != nil {
				return err
			}
			fmt.Fprintf(app.out, "\nsaved %s\nto start a search run:\n  autotune run -c %s\n", output, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "description.yaml", "file to write (.yaml, .yml or .json)")
	return cmd
}
