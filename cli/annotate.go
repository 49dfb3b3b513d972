package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kasuganosora/vaultctl/store"
	"github.com/spf13/cobra"
)

// Tags and notes are keyed by item key and never need the remote profile.

func newTagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Tag items for use in searches (tag:<name>)",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <item-key> <tag>",
			Short: "Add a tag to an item",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.store.AddTag(cmd.Context(), args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "rm <item-key> <tag>",
			Short: "Remove a tag from an item",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				err := a.store.RemoveTag(cmd.Context(), args[0], args[1])
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("%s is not tagged %q", args[0], store.NormalizeTag(args[1]))
				}
				return err
			},
		},
		&cobra.Command{
			Use:   "list [item-key]",
			Short: "List tags of one item or of every tagged item",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				if len(args) == 1 {
					tags, err := a.store.Tags(ctx, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintln(a.out, strings.Join(tags, ","))
					return nil
				}
				all, err := a.store.AllTags(ctx)
				if err != nil {
					return err
				}
				keys := make([]string, 0, len(all))
				for k := range all {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				w := newTable(a.out)
				fmt.Fprint(w, "KEY\tTAGS\n")
				for _, k := range keys {
					fmt.Fprintf(w, "%s\t%s\n", k, strings.Join(all[k], ","))
				}
				return w.Flush()
			},
		},
	)
	return cmd
}

func newNoteCmd(a *app) *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "note <item-key> [text]",
		Short: "Show or set an item's note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key := args[0]
			text := strings.Join(args[1:], " ")
			switch {
			case remove:
				return a.store.SetNote(ctx, key, "")
			case text != "":
				return a.store.SetNote(ctx, key, text)
			}
			note, err := a.store.Note(ctx, key)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%s has no note", key)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, note)
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "clear", false, "delete the note")
	return cmd
}
