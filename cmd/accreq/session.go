package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/accreq"
	"github.com/aretw0/accreq/internal/config"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage browser sessions",
	Long:  `List, inspect, and remove sessions kept in the file or redis session backend.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all active sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sessionStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		ids, err := store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(ids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No active sessions found.")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print a session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sessionStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		s, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("load session %s: %w", args[0], err)
		}
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sessionStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		var errs []error
		for _, id := range args {
			if err := store.Delete(cmd.Context(), id); err != nil {
				errs = append(errs, fmt.Errorf("remove %s: %w", id, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session %s\n", id)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}

// sessionStore opens the configured persistent backend. In-memory sessions
// live inside the server process and cannot be reached from here.
func sessionStore(cmd *cobra.Command) (*accreq.SessionStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Session.Backend == config.SessionMemory {
		return nil, fmt.Errorf("session commands need a persistent session.backend (%s or %s), got %q",
			config.SessionFile, config.SessionRedis, cfg.Session.Backend)
	}
	return accreq.NewSessionStore(cfg)
}
