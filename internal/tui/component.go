package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Component is the interface for all TUI components.
type Component interface {
	// Init initializes the component.
	Init() tea.Cmd

	// Update handles messages and returns the updated component.
	Update(msg tea.Msg) (Component, tea.Cmd)

	// View renders the component.
	View() string

	// Title returns the component title.
	Title() string

	// Focused returns true if the component is focused.
	Focused() bool

	// Focus sets the component as focused.
	Focus()

	// Blur removes focus from the component.
	Blur()

	// SetSize sets the component dimensions.
	SetSize(width, height int)
}

// BaseComponent provides common functionality for components.
type BaseComponent struct {
	title   string
	focused bool
	width   int
	height  int
}

// NewBaseComponent creates a new base component.
func NewBaseComponent(title string) BaseComponent {
	return BaseComponent{
		title: title,
	}
}

// Title returns the component title.
func (c *BaseComponent) Title() string {
	return c.title
}

// Focused returns true if focused.
func (c *BaseComponent) Focused() bool {
	return c.focused
}

// Focus sets the component as focused.
func (c *BaseComponent) Focus() {
	c.focused = true
}

// Blur removes focus.
func (c *BaseComponent) Blur() {
	c.focused = false
}

// SetSize sets dimensions.
func (c *BaseComponent) SetSize(width, height int) {
	c.width = width
	c.height = height
}

// Width returns the width.
func (c *BaseComponent) Width() int {
	return c.width
}

// Height returns the height.
func (c *BaseComponent) Height() int {
	return c.height
}

// Styles

// Styles holds the shared colors of every screen.
type Styles struct {
	Title     lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Rising    lipgloss.Style
	Falling   lipgloss.Style
	Star      lipgloss.Style
	Selected  lipgloss.Style
	Header    lipgloss.Style
	Key       lipgloss.Style
	KeyDesc   lipgloss.Style
	Separator lipgloss.Style
}

// DefaultStyles returns default styling.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true),
		Rising:  lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		Falling: lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
		Star:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("229")),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")),
		Key: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
		KeyDesc:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// RenderTitle renders a title bar.
func RenderTitle(title string, width int, focused bool) string {
	style := lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Bold(true)

	if focused {
		style = style.Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("62"))
	} else {
		style = style.Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("238"))
	}

	return style.Render(title)
}

// Truncate truncates a string to fit within a width.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// PadRight pads a string to a given width.
func PadRight(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}

// PadLeft right-aligns a string within a width.
func PadLeft(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return strings.Repeat(" ", width-len(r)) + s
}
