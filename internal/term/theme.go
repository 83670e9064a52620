package term

import (
	"strings"

	darkmode "github.com/thiagokokada/dark-mode-go"
)

type ThemePreference int

const (
	ThemeAuto ThemePreference = iota
	ThemeLight
	ThemeDark
)

func (p ThemePreference) String() string {
	switch p {
	case ThemeLight:
		return "light"
	case ThemeDark:
		return "dark"
	default:
		return "auto"
	}
}

func ThemePreferenceFromString(raw string) ThemePreference {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ThemeDark.String():
		return ThemeDark
	case ThemeLight.String():
		return ThemeLight
	default:
		return ThemeAuto
	}
}

// Theme is the explicit styling configuration threaded into rendering.
type Theme struct {
	Color   bool
	palette palette
}

type palette struct {
	chromaStyle string
	codes       map[Style]string
}

const ansiReset = "\x1b[0m"

var (
	lightPalette = palette{
		chromaStyle: "friendly",
		codes: map[Style]string{
			StyleSuccess: "\x1b[32m",
			StyleError:   "\x1b[31m",
			StyleWarning: "\x1b[33m",
			StyleDimmed:  "\x1b[90m",
			StyleBranch:  "\x1b[35m",
			StyleRemote:  "\x1b[36m",
			StyleBold:    "\x1b[1m",
		},
	}
	darkPalette = palette{
		chromaStyle: "monokai",
		codes: map[Style]string{
			StyleSuccess: "\x1b[92m",
			StyleError:   "\x1b[91m",
			StyleWarning: "\x1b[93m",
			StyleDimmed:  "\x1b[90m",
			StyleBranch:  "\x1b[95m",
			StyleRemote:  "\x1b[96m",
			StyleBold:    "\x1b[1m",
		},
	}
	detectDarkMode = darkmode.IsDarkMode
)

// NewTheme resolves a preference into a concrete theme. Auto asks the OS;
// detection failure falls back to the light palette.
func NewTheme(pref ThemePreference, color bool) Theme {
	p := lightPalette
	switch pref {
	case ThemeDark:
		p = darkPalette
	case ThemeAuto:
		if detectDarkMode != nil {
			if dark, err := detectDarkMode(); err == nil && dark {
				p = darkPalette
			}
		}
	}
	return Theme{Color: color, palette: p}
}

func (t Theme) paint(s Style, text string) string {
	if !t.Color || s == StyleNone || text == "" {
		return text
	}
	code, ok := t.palette.codes[s]
	if !ok {
		return text
	}
	return code + text + ansiReset
}

func (t Theme) glyph(i Icon) string {
	switch i {
	case IconArrowUp:
		return "↑"
	case IconArrowDown:
		return "↓"
	case IconCheck:
		return "✓"
	case IconLock:
		return "⚿"
	case IconWarn:
		return "⚠"
	default:
		return ""
	}
}
