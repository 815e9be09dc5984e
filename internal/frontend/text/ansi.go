// Package text renders viewpoints as terminal text, with ANSI colour when the
// output is a terminal.
package text

import "fmt"

// ANSI escape code constants for terminal styling.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	White  = "\033[37m"

	BrightYellow = "\033[93m"
	BrightCyan   = "\033[96m"
)

// Styler applies ANSI colours, or nothing when disabled.
type Styler struct {
	Enabled bool
}

// Colorize wraps text with color and a reset suffix when s is enabled.
//
// Postcondition: Returns text unchanged when s is disabled.
func (s Styler) Colorize(color, text string) string {
	if !s.Enabled {
		return text
	}
	return color + text + Reset
}

// Colorf is the formatted form of Colorize.
func (s Styler) Colorf(color, format string, args ...any) string {
	return s.Colorize(color, fmt.Sprintf(format, args...))
}

// StripANSI removes all ANSI escape sequences from a string.
//
// Postcondition: Returns text with all \033[...m sequences removed.
func StripANSI(s string) string {
	result := make([]byte, 0, len(s))
	i := 0
	for i < len(s) {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			if j < len(s) {
				i = j + 1
				continue
			}
		}
		result = append(result, s[i])
		i++
	}
	return string(result)
}
