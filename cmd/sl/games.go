package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"scoreline/internal/domain"
	"scoreline/internal/engine"
	"scoreline/internal/repo"
	"scoreline/internal/turn"
)

func gameCmd() *cobra.Command {
	g := &cobra.Command{
		Use:   "game",
		Short: "Play and manage games",
		Long:  "Start a game, throw darts in board notation, undo mistakes and look at the scoreboard.",
	}
	g.AddCommand(gameModesCmd())
	g.AddCommand(gameStartCmd())
	g.AddCommand(gameThrowCmd())
	g.AddCommand(gameValidateCmd())
	g.AddCommand(gameUndoCmd())
	g.AddCommand(gameShowCmd())
	g.AddCommand(gameListCmd())
	g.AddCommand(gameRecentCmd())
	g.AddCommand(gameUpdateCmd())
	g.AddCommand(gameDeleteCmd())
	return g
}

func printGames(items []domain.Game) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Type", "Players", "Round", "Completed", "Winner", "Created"})
	for _, g := range items {
		ids := make([]string, 0, len(g.PlayerIDs))
		for _, id := range g.PlayerIDs {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		winner := ""
		if g.Winner != nil {
			winner = strconv.FormatInt(*g.Winner, 10)
		}
		tw.AppendRow(table.Row{g.ID, g.GameType.Label(), strings.Join(ids, ","), g.State.CurrentRound, g.Completed, winner, g.CreatedAt})
	}
	tw.Render()
	return nil
}

func printView(v engine.GameView) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	status := fmt.Sprintf("round %d, dart %d", v.Game.State.CurrentRound, v.Game.State.CurrentThrow+1)
	if v.Game.Completed {
		status = "completed"
	}
	fmt.Printf("Game %d: %s (%s)\n", v.Game.ID, v.Label, status)
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"", "Player", "Score", "Target", "Darts", "Average", "Note"})
	for _, p := range v.Players {
		marker := ""
		if p.Active {
			marker = ">"
		}
		if v.Game.Winner != nil && *v.Game.Winner == p.PlayerID {
			marker = "*"
		}
		note := ""
		switch {
		case p.Bust:
			note = "bust"
		case p.InvalidFinish:
			note = "finish on a double"
		}
		tw.AppendRow(table.Row{marker, p.Name, p.Display, p.Target, p.Darts, fmt.Sprintf("%.2f", p.Average), note})
	}
	tw.Render()
	return nil
}

func gameModesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modes",
		Short: "List game modes and their rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			modes := turn.Modes()
			if viper.GetBool("json") {
				return printJSON(modes)
			}
			for _, m := range modes {
				fmt.Printf("%s (%s): %s\n", m.Label, m.Type, m.Description)
				for _, r := range m.Rules {
					fmt.Printf("  - %s\n", r)
				}
			}
			return nil
		},
	}
	return cmd
}

func gameStartCmd() *cobra.Command {
	var gameType string
	var players []int64
	var solo bool
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a game",
		RunE: func(cmd *cobra.Command, args []string) error {
			gt, err := turn.ParseGameType(gameType)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				ids := players
				if solo {
					p, err := e.SoloPlayer(ctx)
					if err != nil {
						return err
					}
					ids = append([]int64{p.ID}, ids...)
				}
				g, err := e.StartGame(ctx, gt, ids)
				if err != nil {
					return err
				}
				v, err := e.ViewGame(ctx, g.ID)
				if err != nil {
					return err
				}
				return printView(v)
			})
		},
	}
	cmd.Flags().StringVar(&gameType, "type", string(turn.Countdown501), "game type (501, 301, 101, around-the-world, west-to-east, north-to-south)")
	cmd.Flags().Int64SliceVar(&players, "player", nil, "player id in throwing order (repeatable)")
	cmd.Flags().BoolVar(&solo, "solo", false, "play as the practice player")
	return cmd
}

func gameThrowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "throw <game-id> <dart>...",
		Short: "Record darts for the active player",
		Long:  "Darts use board notation: S20 or 20, D16, T19, OB or 25, BULL or 50, MISS or 0.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("game", args[0])
			if err != nil {
				return err
			}
			darts := make([]turn.Throw, 0, len(args)-1)
			for _, arg := range args[1:] {
				t, err := turn.ParseThrow(arg)
				if err != nil {
					return err
				}
				darts = append(darts, t)
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var results []engine.ThrowResult
				for _, t := range darts {
					res, err := e.Throw(ctx, id, t)
					if err != nil {
						return err
					}
					results = append(results, res)
					if !viper.GetBool("json") {
						line := fmt.Sprintf("player %d: %s -> %s (%d), turn total %d", res.Result.PlayerID, t, res.Result.Outcome, res.Result.Points, res.TurnTotal)
						if res.HighScore {
							line += ", high score!"
						}
						fmt.Println(line)
					}
				}
				if viper.GetBool("json") {
					return printJSON(results)
				}
				v, err := e.ViewGame(ctx, id)
				if err != nil {
					return err
				}
				return printView(v)
			})
		},
	}
	return cmd
}

func gameValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <game-id> <dart>",
		Short: "Check a dart against the active player's target without recording it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("game", args[0])
			if err != nil {
				return err
			}
			t, err := turn.ParseThrow(args[1])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				check, err := e.CheckThrow(ctx, id, t)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(check)
				}
				verdict := "counts"
				if !check.ExpectedValid {
					verdict = "does not count"
				}
				fmt.Printf("player %d: %s %s (%d points); target: %s\n", check.PlayerID, t, verdict, check.Points, check.Target)
				return nil
			})
		},
	}
	return cmd
}

func gameUndoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo <game-id>",
		Short: "Take back the last dart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("game", args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if _, err := e.Undo(ctx, id); err != nil {
					return err
				}
				v, err := e.ViewGame(ctx, id)
				if err != nil {
					return err
				}
				return printView(v)
			})
		},
	}
	return cmd
}

func gameShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <game-id>",
		Short: "Show the scoreboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("game", args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				v, err := e.ViewGame(ctx, id)
				if err != nil {
					return err
				}
				return printView(v)
			})
		},
	}
	return cmd
}

func gameListCmd() *cobra.Command {
	var f repo.GameFilters
	var completed string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List games, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if completed != "" {
				v, err := strconv.ParseBool(completed)
				if err != nil {
					return fmt.Errorf("invalid --completed %q", completed)
				}
				f.Completed = &v
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListGames(ctx, f)
				if err != nil {
					return err
				}
				return printGames(items)
			})
		},
	}
	cmd.Flags().Int64Var(&f.PlayerID, "player", 0, "only games of this player")
	cmd.Flags().StringVar(&completed, "completed", "", "completion filter (true or false)")
	cmd.Flags().IntVar(&f.Limit, "limit", 50, "max games")
	return cmd
}

func gameRecentCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Most recently started games",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.RecentGames(ctx, limit)
				if err != nil {
					return err
				}
				return printGames(items)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "max games (default from config)")
	return cmd
}

func gameUpdateCmd() *cobra.Command {
	var completed bool
	var winner int64
	cmd := &cobra.Command{
		Use:   "update <game-id>",
		Short: "Override completion or winner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("game", args[0])
			if err != nil {
				return err
			}
			opts := engine.GameUpdateOptions{ID: id}
			if cmd.Flags().Changed("completed") {
				opts.Completed = &completed
			}
			if cmd.Flags().Changed("winner") {
				opts.Winner = &winner
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				g, err := e.UpdateGame(ctx, opts)
				if err != nil {
					return err
				}
				return printGames([]domain.Game{g})
			})
		},
	}
	cmd.Flags().BoolVar(&completed, "completed", false, "mark completed or reopen")
	cmd.Flags().Int64Var(&winner, "winner", 0, "winner player id")
	return cmd
}

func gameDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <game-id>",
		Short: "Delete a game and reverse its stats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("game", args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeleteGame(ctx, id); err != nil {
					return err
				}
				fmt.Println("deleted game", id)
				return nil
			})
		},
	}
	return cmd
}
