package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used for status output.
type Styles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style
	Header  lipgloss.Style
	Bold    lipgloss.Style
}

// NewStyles returns coloured styles, or plain ones when color is false.
func NewStyles(color bool) *Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return &Styles{
			Success: plain, Error: plain, Warning: plain, Info: plain,
			Muted: plain, Header: plain, Bold: plain,
		}
	}
	return &Styles{
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Header:  lipgloss.NewStyle().Bold(true).Underline(true),
		Bold:    lipgloss.NewStyle().Bold(true),
	}
}

// ColorEnabled reports whether the environment allows coloured output.
func ColorEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return termenv.EnvColorProfile() != termenv.Ascii
}
