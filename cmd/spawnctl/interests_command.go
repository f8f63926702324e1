package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"spawnwatch/internal/app/di"
	"spawnwatch/internal/feature/subscription/transport/command"
	"spawnwatch/internal/feature/subscription/usecase"
)

func newInterestsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interests",
		Short: "Read or change a watcher's interest list",
	}
	cmd.AddCommand(newInterestsListCommand(ctx), newInterestsAddCommand(ctx))
	return cmd
}

// withUsecase はウォッチャーストアを開いてfnを実行し、必ず閉じます。
func withUsecase(cmd *cobra.Command, ctx *commandContext, fn func(uc *usecase.SubscriptionUsecase) error) error {
	cfg, err := ctx.ensureConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	store, err := di.NewWatcherStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(usecase.NewSubscriptionUsecase(store.Repo))
}

func newInterestsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <watcher-id>",
		Short: "Show a watcher's interest list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsecase(cmd, ctx, func(uc *usecase.SubscriptionUsecase) error {
				names, err := uc.ListInterest(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(names))
				for i, n := range names {
					rows = append(rows, []string{strconv.Itoa(i + 1), n})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "Name"}, rows, 1))
				return nil
			})
		},
	}
}

func newInterestsAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <watcher-id> <name>[, <name>...]",
		Short: "Add names to a watcher's interest list",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := strings.Split(strings.Join(args[1:], " "), ",")
			return withUsecase(cmd, ctx, func(uc *usecase.SubscriptionUsecase) error {
				res, err := uc.AddInterest(cmd.Context(), args[0], names)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), command.FormatAdd(res))
				return nil
			})
		},
	}
}
