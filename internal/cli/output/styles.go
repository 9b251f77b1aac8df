package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds lipgloss styles used in text mode.
type Styles struct {
	Header    lipgloss.Style
	Subheader lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Info      lipgloss.Style
	Positive  lipgloss.Style
	Negative  lipgloss.Style
}

// NewStyles builds styles for a color profile. The Ascii profile strips all
// color and decoration.
func NewStyles(profile termenv.Profile) *Styles {
	re := lipgloss.NewRenderer(io.Discard)
	re.SetColorProfile(profile)

	return &Styles{
		Header:    re.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Subheader: re.NewStyle().Bold(true),
		Bold:      re.NewStyle().Bold(true),
		Muted:     re.NewStyle().Foreground(lipgloss.Color("8")),
		Success:   re.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:   re.NewStyle().Foreground(lipgloss.Color("11")),
		Error:     re.NewStyle().Foreground(lipgloss.Color("9")),
		Info:      re.NewStyle().Foreground(lipgloss.Color("14")),
		Positive:  re.NewStyle().Foreground(lipgloss.Color("10")),
		Negative:  re.NewStyle().Foreground(lipgloss.Color("9")),
	}
}
