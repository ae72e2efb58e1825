package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rentapp/pkg/domain"
)

// idAction runs a per-user list mutation on one property id.
type idAction func(cmd *cobra.Command, id string) (bool, error)

func (a *App) idCmd(use, short, op, done, noop string, action idAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed, err := action(cmd, args[0])
			if err != nil {
				return a.writeFailure(op, err)
			}
			msg := done
			if !changed {
				msg = noop
			}
			fmt.Fprintf(cmd.OutOrStdout(), msg+"\n", args[0])
			return nil
		},
	}
}

func (a *App) propertiesCmd(use, short string, load func(cmd *cobra.Command) ([]domain.DisplayProperty, error)) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := load(cmd)
			if err := a.readWarning(cmd, err); err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), props)
			}
			printProperties(cmd.OutOrStdout(), props)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *App) bookmarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmark",
		Short: "Manage bookmarked properties",
	}
	cmd.AddCommand(
		a.idCmd("add", "Bookmark a property", "bookmark add", "Bookmarked %s", "%s is already bookmarked",
			func(cmd *cobra.Command, id string) (bool, error) {
				svc, err := a.service(cmd)
				if err != nil {
					return false, err
				}
				return svc.Bookmarks().Add(cmd.Context(), id, a.userID)
			}),
		a.idCmd("remove", "Remove a bookmark, keeping it in history", "bookmark remove", "Removed bookmark %s", "%s is not bookmarked",
			func(cmd *cobra.Command, id string) (bool, error) {
				svc, err := a.service(cmd)
				if err != nil {
					return false, err
				}
				return svc.Bookmarks().Remove(cmd.Context(), id, a.userID)
			}),
		a.idCmd("restore", "Restore a recently removed bookmark", "bookmark restore", "Restored bookmark %s", "%s is not in the removal history",
			func(cmd *cobra.Command, id string) (bool, error) {
				svc, err := a.service(cmd)
				if err != nil {
					return false, err
				}
				return svc.Bookmarks().Restore(cmd.Context(), id, a.userID)
			}),
		a.idCmd("forget", "Drop a property from the removal history", "bookmark forget", "Forgot %s", "%s is not in the removal history",
			func(cmd *cobra.Command, id string) (bool, error) {
				svc, err := a.service(cmd)
				if err != nil {
					return false, err
				}
				return svc.Bookmarks().PermanentlyDelete(cmd.Context(), id, a.userID)
			}),
		a.propertiesCmd("list", "List bookmarked properties", func(cmd *cobra.Command) ([]domain.DisplayProperty, error) {
			svc, err := a.service(cmd)
			if err != nil {
				return nil, err
			}
			return svc.Bookmarks().ListProperties(cmd.Context(), a.userID)
		}),
		a.historyCmd(),
		a.purgeCmd(),
	)
	return cmd
}

func (a *App) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show recently removed bookmarks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			history, err := svc.Bookmarks().RecentlyRemoved(cmd.Context(), a.userID)
			if err := a.readWarning(cmd, err); err != nil {
				return err
			}
			if len(history) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recently removed bookmarks.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s  %-24s\n", "ID", "Removed At")
			for _, h := range history {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s  %-24s\n", h.PropertyID, h.RemovedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func (a *App) purgeCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Drop removal history older than --older-than",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			n, err := svc.Bookmarks().PurgeRecentlyRemoved(cmd.Context(), a.userID, time.Now().UTC().Add(-olderThan))
			if err != nil {
				return a.writeFailure("bookmark purge", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d history entries\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age of entries to drop")
	return cmd
}

func (a *App) followUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "followup",
		Short: "Manage properties marked for follow-up",
	}
	cmd.AddCommand(
		a.idCmd("add", "Mark a property for follow-up", "followup add", "Following up %s", "%s is already in follow-up",
			func(cmd *cobra.Command, id string) (bool, error) {
				svc, err := a.service(cmd)
				if err != nil {
					return false, err
				}
				return svc.Pipeline().AddToFollowUp(cmd.Context(), id, a.userID)
			}),
		a.idCmd("remove", "Remove a property from follow-up", "followup remove", "Removed %s from follow-up", "%s is not in follow-up",
			func(cmd *cobra.Command, id string) (bool, error) {
				svc, err := a.service(cmd)
				if err != nil {
					return false, err
				}
				return svc.Pipeline().RemoveFromFollowUp(cmd.Context(), id, a.userID)
			}),
		a.propertiesCmd("list", "List follow-up properties", func(cmd *cobra.Command) ([]domain.DisplayProperty, error) {
			svc, err := a.service(cmd)
			if err != nil {
				return nil, err
			}
			return svc.Pipeline().ListFollowUpProperties(cmd.Context(), a.userID)
		}),
		a.noteCmd(),
		a.notesCmd(),
	)
	return cmd
}

func (a *App) closedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "closed",
		Short: "Manage closed properties",
	}
	cmd.AddCommand(
		a.idCmd("add", "Mark a property closed", "closed add", "Closed %s", "%s is already closed",
			func(cmd *cobra.Command, id string) (bool, error) {
				svc, err := a.service(cmd)
				if err != nil {
					return false, err
				}
				return svc.Pipeline().AddToClosed(cmd.Context(), id, a.userID)
			}),
		a.idCmd("remove", "Reopen a closed property", "closed remove", "Reopened %s", "%s is not closed",
			func(cmd *cobra.Command, id string) (bool, error) {
				svc, err := a.service(cmd)
				if err != nil {
					return false, err
				}
				return svc.Pipeline().RemoveFromClosed(cmd.Context(), id, a.userID)
			}),
		a.propertiesCmd("list", "List closed properties", func(cmd *cobra.Command) ([]domain.DisplayProperty, error) {
			svc, err := a.service(cmd)
			if err != nil {
				return nil, err
			}
			return svc.Pipeline().ListClosedProperties(cmd.Context(), a.userID)
		}),
	)
	return cmd
}

func (a *App) noteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "note [id] [text]",
		Short: "Set the follow-up note for a property; omit text to delete it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			var note string
			if len(args) == 2 {
				note = args[1]
			}
			if err := svc.Pipeline().SetNote(cmd.Context(), args[0], note, a.userID); err != nil {
				return a.writeFailure("followup note", err)
			}
			if note == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted note for %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved note for %s\n", args[0])
			}
			return nil
		},
	}
}

func (a *App) notesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notes",
		Short: "Show follow-up notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			notes, err := svc.Pipeline().Notes(cmd.Context(), a.userID)
			if err := a.readWarning(cmd, err); err != nil {
				return err
			}
			if len(notes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No follow-up notes.")
				return nil
			}
			for _, id := range sortedKeys(notes) {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s  %s\n", id, notes[id])
			}
			return nil
		},
	}
}

func (a *App) clearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear every follow-up and closed list, and the notes of --user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			svc, err := a.service(cmd)
			if err != nil {
				return err
			}
			n, err := svc.Pipeline().ClearAll(cmd.Context(), a.userID)
			if err != nil {
				return a.writeFailure("clear", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d lists\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm clearing lists for all users")
	return cmd
}
