// Package ui prints progression and status lines for packaging scripts.
// Styling is only applied when stdout is a terminal; scripts capturing
// output get plain text.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// Printer writes user-facing output for long running helper operations
type Printer struct {
	out   io.Writer
	plain bool
}

// New creates a Printer writing to stdout
func New() *Printer {
	return &Printer{
		out:   os.Stdout,
		plain: !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}
}

// NewPlain creates a Printer without styling, writing to w
func NewPlain(w io.Writer) *Printer {
	return &Printer{out: w, plain: true}
}

// Progress prints a step counter line like packaging scripts expect
func (p *Printer) Progress(step, total int, msg string) {
	if total <= 0 {
		total = 1
	}
	if step > total {
		step = total
	}
	bar := strings.Repeat("#", step) + strings.Repeat(".", total-step)
	line := fmt.Sprintf("[%s] %s", bar, msg)
	if p.plain {
		fmt.Fprintln(p.out, line)
		return
	}
	fmt.Fprintln(p.out, pterm.Bold.Sprint(line))
}

// Info prints an informational line
func (p *Printer) Info(msg string) {
	if p.plain {
		fmt.Fprintln(p.out, msg)
		return
	}
	fmt.Fprintln(p.out, pterm.NewStyle(pterm.FgCyan).Sprint(msg))
}

// Warn prints a warning line
func (p *Printer) Warn(msg string) {
	if p.plain {
		fmt.Fprintln(p.out, "WARNING: "+msg)
		return
	}
	fmt.Fprintln(p.out, pterm.NewStyle(pterm.FgYellow, pterm.Bold).Sprint("WARNING: "+msg))
}

// Success prints a completion line
func (p *Printer) Success(msg string) {
	if p.plain {
		fmt.Fprintln(p.out, msg)
		return
	}
	fmt.Fprintln(p.out, pterm.NewStyle(pterm.FgGreen).Sprint(msg))
}
