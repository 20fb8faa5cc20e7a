package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kipod/server/internal/config"
	"github.com/kipod/server/internal/replay"
)

// newReplayCmd groups read-only inspection of the replay database,
// kept separate from `serve` so an operator can list/inspect recorded
// games without spinning up the full server.
func newReplayCmd() *cobra.Command {
	var dbURI string
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Inspects recorded games",
	}
	cmd.PersistentFlags().StringVar(&dbURI, "db", "", "replay database URI (defaults to config.Default().ReplayDBURI)")

	cmd.AddCommand(newReplayListCmd(&dbURI))
	cmd.AddCommand(newReplayShowCmd(&dbURI))
	return cmd
}

func openReplay(dbURI string) (*replay.SQLiteLog, error) {
	if dbURI == "" {
		dbURI = config.Default().ReplayDBURI
	}
	return replay.OpenSQLite(dbURI)
}

func newReplayListCmd(dbURI *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "Lists every recorded game",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := openReplay(*dbURI)
			if err != nil {
				return err
			}
			defer log.Close()

			games, err := log.GetAllGames(context.Background())
			if err != nil {
				return err
			}
			for _, g := range games {
				fmt.Printf("%d\t%s\t%s\tmap=%s\tlength=%d\tplayers=%d\n",
					g.ID, g.Name, g.Date.Format("2006-01-02 15:04:05"), g.MapName, g.Length, g.NumPlayers)
			}
			return nil
		},
	}
}

func newReplayShowCmd(dbURI *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show [game-id]",
		Short: "Shows every recorded action for one game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var gameID int64
			if _, err := fmt.Sscanf(args[0], "%d", &gameID); err != nil {
				return fmt.Errorf("invalid game id %q: %w", args[0], err)
			}

			log, err := openReplay(*dbURI)
			if err != nil {
				return err
			}
			defer log.Close()

			actions, err := log.GetAllActions(context.Background(), gameID)
			if err != nil {
				return err
			}
			for _, a := range actions {
				fmt.Printf("%s\t%d\t%s\n", a.Date.Format("2006-01-02 15:04:05.000"), a.Code, a.Message)
			}
			return nil
		},
	}
}
