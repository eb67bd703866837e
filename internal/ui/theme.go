package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bamsammich/lfskit/internal/config"
	"github.com/bamsammich/lfskit/internal/stats"
)

// Catppuccin Mocha palette, overridable from the [theme] config section.
var (
	ColorGreen  = lipgloss.Color("#a6e3a1")
	ColorRed    = lipgloss.Color("#f38ba8")
	ColorMuted  = lipgloss.Color("#5a6278")
	ColorBright = lipgloss.Color("#cdd6f4")
)

var (
	styleIconDone   lipgloss.Style
	styleIconFailed lipgloss.Style
	styleLabel      lipgloss.Style
	styleBody       lipgloss.Style
)

func init() {
	rebuildStyles()
}

func rebuildStyles() {
	styleIconDone = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	styleIconFailed = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	styleLabel = lipgloss.NewStyle().Foreground(ColorBright).Bold(true)
	styleBody = lipgloss.NewStyle().Foreground(ColorMuted)
}

// ApplyTheme overrides colors from a config ThemeConfig and rebuilds styles.
func ApplyTheme(tc config.ThemeConfig) {
	if tc.Green != nil {
		ColorGreen = lipgloss.Color(*tc.Green)
	}
	if tc.Red != nil {
		ColorRed = lipgloss.Color(*tc.Red)
	}
	if tc.Muted != nil {
		ColorMuted = lipgloss.Color(*tc.Muted)
	}
	if tc.Bright != nil {
		ColorBright = lipgloss.Color(*tc.Bright)
	}
	rebuildStyles()
}

// StyledSummary is CompletionSummary rendered with the theme colors.
func StyledSummary(snap stats.Snapshot) string {
	icon := styleIconDone.Render(summaryIcon(snap))
	if snap.FilesFailed > 0 {
		icon = styleIconFailed.Render(summaryIcon(snap))
	}
	return styleLabel.Render("done") + " " + icon + "  " + styleBody.Render(summaryBody(snap))
}
