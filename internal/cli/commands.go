package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"go-chi-calculator/internal/history"
	"go-chi-calculator/internal/preferences"
	"go-chi-calculator/internal/session"
)

const msgNoHistory = "No calculations yet"

func newPressCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "press <key>...",
		Short: "Press keys in order and print the display",
		Example: `  calc press 5 + 3 =
  calc press 1 0 0 0 0 0 0 + 0 Enter`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, done, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			snap, err := pressAll(cmd, sess, args)
			if err != nil {
				return err
			}
			printSnapshot(cmd.OutOrStdout(), snap)
			return nil
		},
	}
}

func newHistoryCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List past calculations grouped by day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, done, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			printHistory(cmd.OutOrStdout(), sess.History(), sess.Location())
			return nil
		},
	}
}

func newRecallCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "recall <id> [key...]",
		Short: "Load a past result, then optionally keep pressing keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid history id %q: %w", args[0], err)
			}

			sess, done, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			snap, err := sess.Recall(cmd.Context(), id)
			if err != nil {
				return err
			}
			if len(args) > 1 {
				if snap, err = pressAll(cmd, sess, args[1:]); err != nil {
					return err
				}
			}
			printSnapshot(cmd.OutOrStdout(), snap)
			return nil
		},
	}
}

func newPrefsCommand(open opener) *cobra.Command {
	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, done, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			printPreferences(cmd.OutOrStdout(), sess.Preferences())
			return nil
		},
	}

	prefsCmd.AddCommand(&cobra.Command{
		Use:   "toggle <name>",
		Short: "Flip dark-mode, sound or animations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := preferences.ParseName(args[0])
			if err != nil {
				return err
			}

			sess, done, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			prefs, err := sess.TogglePreference(cmd.Context(), name)
			printPreferences(cmd.OutOrStdout(), prefs)
			return err
		},
	})
	return prefsCmd
}

func pressAll(cmd *cobra.Command, sess *session.Session, keys []string) (session.Snapshot, error) {
	var snap session.Snapshot
	for _, key := range keys {
		var err error
		snap, err = sess.Press(cmd.Context(), key)
		if err != nil {
			return snap, err
		}
		if snap.Entry != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "recorded #%d: %s\n", snap.Entry.ID, snap.Entry.Expression)
		}
		if snap.PersistError != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", snap.PersistError)
		}
	}
	return snap, nil
}

func printSnapshot(w io.Writer, snap session.Snapshot) {
	if snap.Previous != "" {
		fmt.Fprintln(w, snap.Previous)
	}
	fmt.Fprintln(w, snap.Current)
	if snap.Error != "" {
		fmt.Fprintf(w, "(%s)\n", snap.Error)
	}
}

func printHistory(w io.Writer, groups []history.DayGroup, loc *time.Location) {
	if len(groups) == 0 {
		fmt.Fprintln(w, msgNoHistory)
		return
	}
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, g.Label)
		for _, e := range g.Entries {
			fmt.Fprintf(w, "  %s  #%d  %s = %s\n", history.FormatTime(e.Timestamp, loc), e.ID, e.Expression, e.Result)
		}
	}
}

func printPreferences(w io.Writer, p preferences.Preferences) {
	for _, name := range preferences.Names {
		fmt.Fprintf(w, "%-18s %t\n", name, p.Get(name))
	}
}
