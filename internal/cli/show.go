package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/artpar/coinfav/internal/market"
	"github.com/artpar/coinfav/internal/screen"
	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show the detail page of one asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, cleanup, err := openApp(cmd, modeCLI)
			if err != nil {
				return err
			}
			defer cleanup()

			projector := application.NewDetailProjector()
			defer projector.Close()

			sub := projector.Subscribe()
			projector.Load(args[0])

			state, err := awaitSettled(cmd.Context(), sub)
			if err != nil {
				return err
			}
			return printDetail(cmd, state, projector.IsFavorite(), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

type detailOutput struct {
	Detail   *market.AssetDetail `json:"detail"`
	Favorite bool                `json:"favorite"`
}

func printDetail(cmd *cobra.Command, state screen.State, favorite, asJSON bool) error {
	switch s := state.(type) {
	case screen.Error:
		return errors.New(s.Message)
	case screen.Success[*market.AssetDetail]:
		if asJSON {
			return writeJSON(cmd.OutOrStdout(), detailOutput{Detail: s.Payload, Favorite: favorite})
		}
		fmt.Fprint(cmd.OutOrStdout(), formatDetail(s.Payload, favorite))
		return nil
	default:
		return fmt.Errorf("unexpected state: %s", screen.Name(state))
	}
}

func formatDetail(d *market.AssetDetail, favorite bool) string {
	var b strings.Builder
	currency := strings.ToUpper(d.Currency)
	md := d.MarketData

	fmt.Fprintf(&b, "%s %s (%s)\n", star(favorite), d.Name, strings.ToUpper(d.Symbol))
	if d.MarketCapRank > 0 {
		fmt.Fprintf(&b, "Rank:        #%d\n", d.MarketCapRank)
	}
	fmt.Fprintf(&b, "Price:       %s %s\n", market.FormatPrice(md.CurrentPrice), currency)
	fmt.Fprintf(&b, "24h change:  %s\n", market.FormatPercent(md.PriceChangePercentage24h))
	fmt.Fprintf(&b, "24h range:   %s - %s\n", market.FormatPrice(md.Low24h), market.FormatPrice(md.High24h))
	fmt.Fprintf(&b, "Market cap:  %s\n", market.FormatCompact(md.MarketCap))
	fmt.Fprintf(&b, "Volume:      %s\n", market.FormatCompact(md.TotalVolume))
	fmt.Fprintf(&b, "ATH:         %s\n", market.FormatPrice(md.AllTimeHigh))
	if !md.CirculatingSupply.IsZero() {
		fmt.Fprintf(&b, "Supply:      %s\n", market.FormatCompact(md.CirculatingSupply))
	}
	if d.Homepage != "" {
		fmt.Fprintf(&b, "Homepage:    %s\n", d.Homepage)
	}
	return b.String()
}
