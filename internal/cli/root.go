package cli

import (
	"fmt"
	"os"

	"github.com/artpar/coinfav/internal/tui/views"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// Persistent flag names.
const (
	flagConfig    = "config"
	flagDataDir   = "data-dir"
	flagBackend   = "backend"
	flagLogLevel  = "log-level"
	flagEphemeral = "ephemeral"
)

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "coinfav",
		Short:         "coinfav - crypto prices and favorites in your terminal",
		Long:          "coinfav tracks cryptocurrency prices and keeps a list of favorite assets.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String(flagConfig, "", "Config file (default <config dir>/coinfav/config.yaml)")
	flags.String(flagDataDir, "", "Directory favorites and logs are kept in")
	flags.String(flagBackend, "", "Storage backend: sqlite, file or memory")
	flags.String(flagLogLevel, "", "Log level: debug, info, warn or error")
	flags.Bool(flagEphemeral, false, "Keep favorites in memory only (same as --backend memory)")

	// Add subcommands
	cmd.AddCommand(NewFavoritesCommand())
	cmd.AddCommand(NewShowCommand())
	cmd.AddCommand(NewMarketsCommand())

	return cmd
}

// tuiModel wraps the MainView for bubbletea
type tuiModel struct {
	view *views.MainView
}

func (m tuiModel) Init() tea.Cmd {
	return m.view.Init()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.view.Update(msg)
	m.view = updated.(*views.MainView)
	return m, cmd
}

func (m tuiModel) View() string {
	return m.view.View()
}

// runTUI starts the TUI application
func runTUI(cmd *cobra.Command) error {
	application, cleanup, err := openApp(cmd, modeTUI)
	if err != nil {
		return err
	}
	defer cleanup()

	view := views.NewMainView(application)
	defer view.Close()

	p := tea.NewProgram(tuiModel{view: view}, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return err
	}
	return nil
}
