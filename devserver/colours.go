package devserver

import "github.com/fatih/color"

var methodColors = map[string]*color.Color{
	"GET":     color.New(color.FgGreen),
	"POST":    color.New(color.FgBlue),
	"PUT":     color.New(color.FgCyan),
	"DELETE":  color.New(color.FgYellow),
	"PATCH":   color.New(color.FgMagenta),
	"OPTIONS": color.New(color.FgHiBlack),
}

var (
	defaultMethodColor = color.New(color.FgHiBlack)
	pathColor          = color.New(color.FgWhite)
)

func methodColor(method string) *color.Color {
	if c, ok := methodColors[method]; ok {
		return c
	}
	return defaultMethodColor
}
