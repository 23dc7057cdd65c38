package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/skull"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	upStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	downStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
)

// rarityStyle colours a rarity label with its palette's accent.
func rarityStyle(r cards.Rarity) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(r == cards.Legendary).
		Foreground(lipgloss.Color(skull.PaletteFor(r).Accent.Hex()))
}

func pnlStyle(up bool) lipgloss.Style {
	if up {
		return upStyle
	}
	return downStyle
}
