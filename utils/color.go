package utils

import (
	"fmt"
	"os"
)

const (
	ColorRed      = 31
	ColorGreen    = 32
	ColorYellow   = 33
	ColorCyan     = 36
	ColorDarkGray = 90
)

// Colorize wraps s in an ANSI color escape. NO_COLOR disables it.
func Colorize(s interface{}, c int, enabled bool) string {
	if !enabled || os.Getenv("NO_COLOR") != "" || c == 0 {
		return fmt.Sprintf("%v", s)
	}

	return fmt.Sprintf("\x1b[%dm%v\x1b[0m", c, s)
}
