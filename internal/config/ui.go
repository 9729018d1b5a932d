package config

// UI themes.
const (
	ThemeAuto  = "auto"
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ValidThemes lists the accepted ui.theme values.
var ValidThemes = []string{ThemeAuto, ThemeLight, ThemeDark}

// UIConfig configures the terminal UI.
type UIConfig struct {
	Theme       string `yaml:"theme"`        // auto, light, dark
	ShowSignals bool   `yaml:"show_signals"` // show extracted signals for the last agent line
}
