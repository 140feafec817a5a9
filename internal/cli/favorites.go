package cli

import (
	"errors"
	"fmt"

	"github.com/artpar/coinfav/internal/market"
	"github.com/artpar/coinfav/internal/screen"
	"github.com/spf13/cobra"
)

// NewFavoritesCommand creates the favorites command group.
func NewFavoritesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage favorite assets",
	}

	cmd.AddCommand(newFavoritesListCommand())
	cmd.AddCommand(newFavoritesToggleCommand())
	cmd.AddCommand(newFavoritesIDsCommand())

	return cmd
}

func newFavoritesListCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show prices for every favorite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, cleanup, err := openApp(cmd, modeCLI)
			if err != nil {
				return err
			}
			defer cleanup()

			projector := application.NewListProjector()
			defer projector.Close()

			sub := projector.Subscribe()
			projector.Start()

			state, err := awaitSettled(cmd.Context(), sub)
			if err != nil {
				return err
			}
			return printFavorites(cmd, state, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printFavorites(cmd *cobra.Command, state screen.State, asJSON bool) error {
	out := cmd.OutOrStdout()

	switch s := state.(type) {
	case screen.Error:
		return errors.New(s.Message)
	case screen.Empty:
		if asJSON {
			return writeJSON(out, []market.Asset{})
		}
		fmt.Fprintln(out, "No favorites yet. Add one with: coinfav favorites toggle ID")
		return nil
	case screen.Success[[]market.Asset]:
		if asJSON {
			return writeJSON(out, s.Payload)
		}
		fmt.Fprintln(out, assetTable(s.Payload, nil))
		return nil
	default:
		return fmt.Errorf("unexpected state: %s", screen.Name(state))
	}
}

func newFavoritesToggleCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "toggle ID...",
		Short: "Add or remove assets from favorites",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, cleanup, err := openApp(cmd, modeCLI)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			favs := application.Favorites()

			for _, id := range args {
				snap := favs.Toggle(cmd.Context(), id)
				if asJSON {
					continue
				}
				if snap.Contains(id) {
					fmt.Fprintf(out, "%s %s added\n", starOn, id)
				} else {
					fmt.Fprintf(out, "%s %s removed\n", starOff, id)
				}
			}

			ids := favs.Current().IDs()
			if asJSON {
				return writeJSON(out, map[string]any{"favorites": nonNil(ids)})
			}
			fmt.Fprintf(out, "Favorites: %s\n", joinOrNone(ids))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the resulting set as JSON")
	return cmd
}

func newFavoritesIDsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ids",
		Short: "Print stored favorite identifiers without contacting the price API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, cleanup, err := openApp(cmd, modeCLI)
			if err != nil {
				return err
			}
			defer cleanup()

			ids := application.Favorites().Load(cmd.Context()).IDs()
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, nonNil(ids))
			}
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	return market.JoinIDs(ids)
}
