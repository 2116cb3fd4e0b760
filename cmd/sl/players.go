package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"scoreline/internal/domain"
	"scoreline/internal/engine"
)

func playerCmd() *cobra.Command {
	p := &cobra.Command{Use: "player", Short: "Manage players"}
	p.AddCommand(playerListCmd())
	p.AddCommand(playerCreateCmd())
	p.AddCommand(playerShowCmd())
	p.AddCommand(playerUpdateCmd())
	p.AddCommand(playerDeleteCmd())
	p.AddCommand(playerSoloCmd())
	return p
}

func printPlayers(items []domain.Player) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Name", "Games", "Wins", "Highest"})
	for _, p := range items {
		tw.AppendRow(table.Row{p.ID, p.Name, p.GamesPlayed, p.Wins, p.HighestScore})
	}
	tw.Render()
	return nil
}

func playerListCmd() *cobra.Command {
	var limit int
	var cursor int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List players",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListPlayers(ctx, limit, cursor)
				if err != nil {
					return err
				}
				return printPlayers(items)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "max players (0 = all)")
	cmd.Flags().Int64Var(&cursor, "after", 0, "list players with ids after this one")
	return cmd
}

func playerCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.CreatePlayer(ctx, args[0])
				if err != nil {
					return err
				}
				return printPlayers([]domain.Player{p})
			})
		},
	}
	return cmd
}

func playerShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("player", args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.GetPlayer(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	return cmd
}

func playerUpdateCmd() *cobra.Command {
	var name string
	var gamesPlayed, wins, highest int
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a player or correct their stats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("player", args[0])
			if err != nil {
				return err
			}
			opts := engine.PlayerUpdateOptions{ID: id}
			if cmd.Flags().Changed("name") {
				opts.Name = &name
			}
			if cmd.Flags().Changed("games-played") {
				opts.GamesPlayed = &gamesPlayed
			}
			if cmd.Flags().Changed("wins") {
				opts.Wins = &wins
			}
			if cmd.Flags().Changed("highest-score") {
				opts.HighestScore = &highest
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.UpdatePlayer(ctx, opts)
				if err != nil {
					return err
				}
				return printPlayers([]domain.Player{p})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().IntVar(&gamesPlayed, "games-played", 0, "games played")
	cmd.Flags().IntVar(&wins, "wins", 0, "wins")
	cmd.Flags().IntVar(&highest, "highest-score", 0, "highest score")
	return cmd
}

func playerDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a player that never played",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("player", args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeletePlayer(ctx, id); err != nil {
					return err
				}
				fmt.Println("deleted player", id)
				return nil
			})
		},
	}
	return cmd
}

func playerSoloCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solo",
		Short: "Show the practice player, creating it on first use",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.SoloPlayer(ctx)
				if err != nil {
					return err
				}
				return printPlayers([]domain.Player{p})
			})
		},
	}
	return cmd
}
