package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spawnwatch/internal/app/di"
)

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "identify <path-or-url>",
		Short: "Match an image against the reference catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ident, err := di.NewIdentification(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}

			buf, err := ident.Normalizer.Normalize(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result := ident.Matcher.Match(buf)

			out := cmd.OutOrStdout()
			if !result.Found {
				fmt.Fprintln(out, "no match")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Distance"},
				[][]string{{result.Name, fmt.Sprint(result.Distance)}},
				2,
			))
			return nil
		},
	}
}
