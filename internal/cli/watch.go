package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var (
		interval time.Duration
		since    uint64
	)

	cmd := &cobra.Command{
		Use:   "watch <session-id>",
		Short: "Follow a session's event log by polling",
		Long: `watch polls the session on an interval and prints new events as
they arrive. The cursor advances past each printed event, so every
event is printed exactly once. Stops when the session ends.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := args[0]
			cursor := since
			out := NewOutput(cfg.Output)

			for {
				var result SyncResult
				path := fmt.Sprintf("/api/v1/sessions/%s/sync?since=%d", sessionID, cursor)
				if err := client.Get(path, &result); err != nil {
					return err
				}

				for _, e := range result.Events {
					who := e.Username
					if who == "" {
						who = "system"
					}
					if cfg.Output == "json" {
						out.Print(e)
					} else {
						fmt.Printf("%s  #%d %s by %s: %s\n",
							e.CreatedAt.Format(time.RFC3339), e.ID, e.EventType, who, string(e.EventData))
					}
					if e.ID > cursor {
						cursor = e.ID
					}
				}

				switch result.Session.Status {
				case "completed", "cancelled":
					out.PrintMessage(fmt.Sprintf("Session %s, stopping", result.Session.Status))
					return nil
				}

				select {
				case <-cmd.Context().Done():
					return nil
				case <-time.After(interval):
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Poll interval")
	cmd.Flags().Uint64Var(&since, "since", 0, "Event cursor to resume from")

	return cmd
}
