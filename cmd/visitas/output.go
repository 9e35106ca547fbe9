package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	subtleColor  = color.New(color.FgHiBlack)
	labelColor   = color.New(color.FgCyan)
)

type printer struct {
	out io.Writer
	err io.Writer
}

func (p printer) success(format string, args ...any) {
	successColor.Fprintln(p.out, fmt.Sprintf(format, args...))
}

func (p printer) error(format string, args ...any) {
	errorColor.Fprintln(p.err, "ERROR: "+fmt.Sprintf(format, args...))
}

func (p printer) warning(format string, args ...any) {
	warningColor.Fprintln(p.err, "Warning: "+fmt.Sprintf(format, args...))
}

func (p printer) info(format string, args ...any) {
	fmt.Fprintln(p.out, fmt.Sprintf(format, args...))
}

func (p printer) field(label, value string) {
	fmt.Fprintf(p.out, "%s %s\n", labelColor.Sprintf("%-10s", label+":"), value)
}

func (p printer) json(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(p.out, string(data))
	return nil
}

func (p printer) banner(name string) {
	fmt.Fprintln(p.out, figure.NewFigure(name, "cybermedium", true).String())
}
