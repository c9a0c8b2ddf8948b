package interpreter

import "strings"

// ColorReset restores the terminal's default color
const ColorReset = "\033[0m"

var colorCodes = map[string]string{
	"RED":     "\033[31m",
	"GREEN":   "\033[32m",
	"YELLOW":  "\033[33m",
	"BLUE":    "\033[34m",
	"MAGENTA": "\033[35m",
	"CYAN":    "\033[36m",
	"WHITE":   "\033[37m",
	"RESET":   ColorReset,
}

// ColorCode maps a color name, case-insensitively, to its escape
// sequence. Unknown names map to ColorReset.
func ColorCode(name string) string {
	if code, ok := colorCodes[strings.ToUpper(name)]; ok {
		return code
	}
	return ColorReset
}
