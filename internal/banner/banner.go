// Package banner renders the logo shown above the help text.
package banner

import (
	"github.com/charmbracelet/lipgloss"

	"kafkaload/internal/tui/styles"
)

const ascii = `
    __         ______            __                __
   / /______ _/ __/ /______ _   / /___  ____ _____/ /
  / //_/ __ '/ /_/ //_/ __ '/  / / __ \/ __ '/ __  / 
 / ,< / /_/ / __/ ,< / /_/ /  / / /_/ / /_/ / /_/ /  
/_/|_|\__,_/_/ /_/|_|\__,_/  /_/\____/\__,_/\__,_/   `

func GetString() string {
	style := lipgloss.DefaultRenderer().NewStyle().
		Foreground(styles.ColorPrimary).
		Bold(true)

	return "\n" + style.Render(ascii) + "\n" + styles.Subtle.Render("  synthetic event load with duplicate injection") + "\n"
}
