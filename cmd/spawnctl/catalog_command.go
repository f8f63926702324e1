package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"spawnwatch/internal/app/di"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Load the reference catalog and list its entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ident, err := di.NewIdentification(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, ident.Catalog.Len())
			for i, e := range ident.Catalog.Entries() {
				status := "loaded"
				if !e.Loaded() {
					status = "failed"
				}
				rows = append(rows, []string{strconv.Itoa(i + 1), e.Name, status})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"#", "Name", "Status"}, rows, 1))
			fmt.Fprintf(out, "%d of %d entries loaded from %s\n", ident.Catalog.Loaded(), ident.Catalog.Len(), cfg.Catalog.Dir)
			return nil
		},
	}
}
