package cli

import (
	"errors"
	"fmt"

	"github.com/artpar/coinfav/internal/market"
	"github.com/artpar/coinfav/internal/screen"
	"github.com/spf13/cobra"
)

// MarketsOptions holds options for the markets command.
type MarketsOptions struct {
	Page    int
	PerPage int
	JSON    bool
}

// NewMarketsCommand creates the markets command.
func NewMarketsCommand() *cobra.Command {
	opts := &MarketsOptions{}

	cmd := &cobra.Command{
		Use:   "markets",
		Short: "List assets by market cap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMarkets(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&opts.PerPage, "per-page", 0, "Assets per page (default from config)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON")

	return cmd
}

type marketRowOutput struct {
	market.Asset
	Favorite bool `json:"favorite"`
}

func runMarkets(cmd *cobra.Command, opts *MarketsOptions) error {
	application, cleanup, err := openApp(cmd, modeCLI)
	if err != nil {
		return err
	}
	defer cleanup()

	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = application.Config().Markets.PerPage
	}

	projector := application.NewMarketProjector()
	defer projector.Close()

	sub := projector.Subscribe()
	projector.Start()
	projector.Load(opts.Page, perPage)

	state, err := awaitSettled(cmd.Context(), sub)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch s := state.(type) {
	case screen.Error:
		return errors.New(s.Message)
	case screen.Empty:
		if opts.JSON {
			return writeJSON(out, []marketRowOutput{})
		}
		fmt.Fprintf(out, "No assets on page %d\n", opts.Page)
		return nil
	case screen.Success[[]screen.MarketRow]:
		if opts.JSON {
			rows := make([]marketRowOutput, len(s.Payload))
			for i, r := range s.Payload {
				rows[i] = marketRowOutput{Asset: r.Asset, Favorite: r.Favorite}
			}
			return writeJSON(out, rows)
		}
		assets := make([]market.Asset, len(s.Payload))
		marks := make([]bool, len(s.Payload))
		for i, r := range s.Payload {
			assets[i], marks[i] = r.Asset, r.Favorite
		}
		fmt.Fprintln(out, assetTable(assets, marks))
		return nil
	default:
		return fmt.Errorf("unexpected state: %s", screen.Name(state))
	}
}
