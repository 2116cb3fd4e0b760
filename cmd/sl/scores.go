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

func scoreCmd() *cobra.Command {
	s := &cobra.Command{Use: "score", Short: "Score history and high scores"}
	s.AddCommand(scoreListCmd())
	s.AddCommand(scoreHighCmd())
	s.AddCommand(scoreAddCmd())
	s.AddCommand(scoreDeleteCmd())
	return s
}

func printScores(items []domain.Score) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Game", "Player", "Round", "Dart", "Score"})
	for _, s := range items {
		dart := "manual"
		if s.ThrowIndex != nil {
			dart = fmt.Sprint(*s.ThrowIndex + 1)
		}
		tw.AppendRow(table.Row{s.ID, s.GameID, s.PlayerID, s.Round, dart, s.Score})
	}
	tw.Render()
	return nil
}

func scoreListCmd() *cobra.Command {
	var gameID, playerID int64
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scores of a game or a player",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (gameID == 0) == (playerID == 0) {
				return fmt.Errorf("exactly one of --game or --player is required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var (
					items []domain.Score
					err   error
				)
				if gameID != 0 {
					items, err = e.GameScores(ctx, gameID)
				} else {
					items, err = e.PlayerScores(ctx, playerID, limit)
				}
				if err != nil {
					return err
				}
				return printScores(items)
			})
		},
	}
	cmd.Flags().Int64Var(&gameID, "game", 0, "game id")
	cmd.Flags().Int64Var(&playerID, "player", 0, "player id")
	cmd.Flags().IntVar(&limit, "limit", 50, "max scores for --player")
	return cmd
}

func scoreHighCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "high",
		Short: "Best score of each player",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.HighScores(ctx, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Player", "Score"})
				for _, h := range items {
					tw.AppendRow(table.Row{h.Player.Name, h.Score})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "max entries (default from config)")
	return cmd
}

func scoreAddCmd() *cobra.Command {
	var s domain.Score
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a manual score",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				created, err := e.CreateScore(ctx, s)
				if err != nil {
					return err
				}
				return printScores([]domain.Score{created})
			})
		},
	}
	cmd.Flags().Int64Var(&s.GameID, "game", 0, "game id")
	cmd.Flags().Int64Var(&s.PlayerID, "player", 0, "player id")
	cmd.Flags().IntVar(&s.Score, "score", 0, "points (0..180)")
	cmd.Flags().IntVar(&s.Round, "round", 0, "round (default: current round)")
	_ = cmd.MarkFlagRequired("game")
	_ = cmd.MarkFlagRequired("player")
	_ = cmd.MarkFlagRequired("score")
	return cmd
}

func scoreDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("score", args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeleteScore(ctx, id); err != nil {
					return err
				}
				fmt.Println("deleted score", id)
				return nil
			})
		},
	}
	return cmd
}
