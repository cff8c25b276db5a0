package main

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	app      lipgloss.Style
	viewport lipgloss.Style
	footer   lipgloss.Style
	inactive lipgloss.Style
	error    lipgloss.Style
	warning  lipgloss.Style
	success  lipgloss.Style
	prompt   lipgloss.Style
	command  lipgloss.Style
	code     lipgloss.Style
	section  lipgloss.Style
	ascii    lipgloss.Style
}

type ThemeName string

const (
	ThemeCyan    ThemeName = "cyan"
	ThemeMatrix  ThemeName = "matrix"
	ThemeAmber   ThemeName = "amber"
	ThemeDracula ThemeName = "dracula"
)

// palette holds ANSI 256 color codes.
type palette struct {
	accent, accent2, ok, warn, fail, muted, text string
}

var themes = map[ThemeName]palette{
	ThemeCyan:    {accent: "51", accent2: "33", ok: "46", warn: "226", fail: "196", muted: "240", text: "252"},
	ThemeMatrix:  {accent: "82", accent2: "46", ok: "82", warn: "190", fail: "196", muted: "240", text: "120"},
	ThemeAmber:   {accent: "220", accent2: "214", ok: "220", warn: "208", fail: "196", muted: "240", text: "223"},
	ThemeDracula: {accent: "141", accent2: "117", ok: "84", warn: "212", fail: "203", muted: "240", text: "253"},
}

func ListThemes() []ThemeName {
	names := make([]ThemeName, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func isTheme(name ThemeName) bool {
	_, ok := themes[name]
	return ok
}

// GetTheme returns the styles of theme, falling back to cyan.
func GetTheme(theme ThemeName) styles {
	p, ok := themes[theme]
	if !ok {
		p = themes[ThemeCyan]
	}

	fg := func(code string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(code))
	}
	return styles{
		app:      lipgloss.NewStyle().Margin(0, 1),
		viewport: lipgloss.NewStyle().PaddingLeft(1),
		footer: lipgloss.NewStyle().
			MarginTop(1).
			PaddingTop(1).
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(p.accent)),
		inactive: fg(p.muted),
		error:    fg(p.fail).Bold(true),
		warning:  fg(p.warn),
		success:  fg(p.ok).Bold(true),
		prompt:   fg(p.warn).Bold(true),
		command:  fg(p.accent2).Italic(true),
		code: fg(p.text).
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color(p.accent2)),
		section: fg(p.accent).Bold(true).Underline(true),
		ascii:   fg(p.accent).Bold(true),
	}
}
