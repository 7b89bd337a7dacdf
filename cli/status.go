// cli/status.go
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// apiStatus summarises the outputs API connection for the header badge.
type apiStatus string

const (
	apiStatusConnecting apiStatus = "connecting"
	apiStatusOnline     apiStatus = "online"
	apiStatusOffline    apiStatus = "offline"
)

// deriveAPIStatus maps the catalog load result onto a badge state.
func deriveAPIStatus(catalogLoaded bool, banner string) apiStatus {
	switch {
	case banner != "":
		return apiStatusOffline
	case catalogLoaded:
		return apiStatusOnline
	default:
		return apiStatusConnecting
	}
}

// formatAPIIndicator returns the badge text for status.
func formatAPIIndicator(status apiStatus) string {
	return "API: " + string(status)
}

// renderAPIBadge returns a Lipgloss-styled badge for status.
func renderAPIBadge(status apiStatus) string {
	bg := lipgloss.Color("229")
	switch status {
	case apiStatusOnline:
		bg = lipgloss.Color("114")
	case apiStatusOffline:
		bg = lipgloss.Color("203")
	}
	badgeStyle := lipgloss.NewStyle().Background(bg).Foreground(lipgloss.Color("0")).Padding(0, 1).MarginLeft(1)
	return badgeStyle.Render(formatAPIIndicator(status))
}
