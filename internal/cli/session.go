package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Session lifecycle and scoring commands",
	}

	cmd.AddCommand(newSessionCreateCmd())
	cmd.AddCommand(newSessionFindCmd())
	cmd.AddCommand(newSessionJoinCmd())
	cmd.AddCommand(newSessionLeaveCmd())
	cmd.AddCommand(newSessionReadyCmd())
	cmd.AddCommand(newSessionScoreCmd())
	cmd.AddCommand(newSessionAdvanceCmd())
	cmd.AddCommand(newSessionStatusCmd())
	cmd.AddCommand(newSessionSyncCmd())

	return cmd
}

func newSessionCreateCmd() *cobra.Command {
	var (
		game        string
		mode        string
		minPlayers  int
		maxPlayers  int
		allowGuests bool
		totalRounds int
		categories  []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session (requires an account)",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"game_slug":    game,
				"score_mode":   mode,
				"min_players":  minPlayers,
				"max_players":  maxPlayers,
				"allow_guests": allowGuests,
			}
			if totalRounds > 0 {
				req["total_rounds"] = totalRounds
			}
			if len(categories) > 0 {
				req["categories"] = categories
			}

			var result CreateSessionResult
			if err := client.Post("/api/v1/sessions", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&game, "game", "", "Game slug (required)")
	cmd.Flags().StringVar(&mode, "mode", "rounds", "Score mode: rounds, categories")
	cmd.Flags().IntVar(&minPlayers, "min", 2, "Minimum players")
	cmd.Flags().IntVar(&maxPlayers, "max", 8, "Maximum players")
	cmd.Flags().BoolVar(&allowGuests, "guests", false, "Allow guest players")
	cmd.Flags().IntVar(&totalRounds, "rounds", 0, "Total rounds (0 for open-ended)")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "Category ids for categories mode")
	_ = cmd.MarkFlagRequired("game")

	return cmd
}

func newSessionFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <code>",
		Short: "Look up a joinable session by code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result FindResult
			path := fmt.Sprintf("/api/v1/sessions/code/%s", strings.ToUpper(args[0]))
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newSessionJoinCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "join <session-id>",
		Short: "Take a seat in a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{}
			if name != "" {
				req["display_name"] = name
			}

			var result JoinResult
			path := fmt.Sprintf("/api/v1/sessions/%s/join", args[0])
			if err := client.Post(path, req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name for the seat")

	return cmd
}

func newSessionLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <session-id>",
		Short: "Release your seat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/sessions/%s/leave", args[0])
			if err := client.Post(path, nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Left session")
			return nil
		},
	}
}

func newSessionReadyCmd() *cobra.Command {
	var notReady bool

	cmd := &cobra.Command{
		Use:   "ready <session-id>",
		Short: "Flip your ready flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]bool{"ready": !notReady}
			path := fmt.Sprintf("/api/v1/sessions/%s/ready", args[0])
			if err := client.Post(path, req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			if notReady {
				out.PrintMessage("Marked not ready")
			} else {
				out.PrintMessage("Marked ready")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&notReady, "unset", false, "Mark not ready instead")

	return cmd
}

func newSessionScoreCmd() *cobra.Command {
	var (
		playerID string
		round    int
		category string
		value    int
	)

	cmd := &cobra.Command{
		Use:   "score <session-id>",
		Short: "Write one score cell",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"player_id": playerID,
				"value":     value,
			}
			if round > 0 {
				req["round"] = round
			}
			if category != "" {
				req["category_id"] = category
			}

			path := fmt.Sprintf("/api/v1/sessions/%s/score", args[0])
			if err := client.Post(path, req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Score recorded")
			return nil
		},
	}

	cmd.Flags().StringVar(&playerID, "player", "", "Target player id (required)")
	cmd.Flags().IntVar(&round, "round", 0, "Round number (rounds mode)")
	cmd.Flags().StringVar(&category, "category", "", "Category id (categories mode)")
	cmd.Flags().IntVar(&value, "value", 0, "Score value")
	_ = cmd.MarkFlagRequired("player")

	return cmd
}

func newSessionAdvanceCmd() *cobra.Command {
	var fromRound int

	cmd := &cobra.Command{
		Use:   "advance <session-id>",
		Short: "Advance to the next round (host only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]int{"from_round": fromRound}
			var result Session
			path := fmt.Sprintf("/api/v1/sessions/%s/advance", args[0])
			if err := client.Post(path, req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&fromRound, "from", 0, "The round you believe is current (required)")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func newSessionStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <session-id> <active|paused|completed|cancelled>",
		Short: "Change session status (host only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"status": args[1]}
			var result Session
			path := fmt.Sprintf("/api/v1/sessions/%s/status", args[0])
			if err := client.Post(path, req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newSessionSyncCmd() *cobra.Command {
	var since uint64

	cmd := &cobra.Command{
		Use:   "sync <session-id>",
		Short: "Poll a session once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result SyncResult
			path := fmt.Sprintf("/api/v1/sessions/%s/sync?since=%d", args[0], since)
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&since, "since", 0, "Event cursor to resume from")

	return cmd
}
