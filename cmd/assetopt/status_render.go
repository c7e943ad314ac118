package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusOK statusKind = iota
	statusWarn
	statusError
)

const statusLabelWidth = 22

// checkLine is one row of the `tools` report.
type checkLine struct {
	Label   string
	Kind    statusKind
	Message string
}

// checkPrinter writes grouped check lines, coloured when stdout is a terminal.
type checkPrinter struct {
	out    io.Writer
	color  bool
	counts [3]int
}

func newCheckPrinter(out io.Writer) *checkPrinter {
	return &checkPrinter{out: out, color: shouldColorize(out)}
}

func (p *checkPrinter) section(title string, lines []checkLine) {
	heading := strings.TrimSpace(title)
	if p.color {
		heading = "\x1b[1m" + heading + "\x1b[0m"
	}
	fmt.Fprintf(p.out, "== %s ==\n", heading)
	for _, line := range lines {
		p.counts[line.Kind]++
		fmt.Fprintln(p.out, p.render(line))
	}
	fmt.Fprintln(p.out)
}

func (p *checkPrinter) render(line checkLine) string {
	tag := statusTag(line.Kind)
	if p.color {
		tag = statusColor(line.Kind) + tag + "\x1b[0m"
	}
	text := fmt.Sprintf("  %-*s %s", statusLabelWidth, line.Label, tag)
	if line.Message != "" {
		text += " " + line.Message
	}
	return text
}

// summary reports the totals of every section printed so far.
func (p *checkPrinter) summary() string {
	return fmt.Sprintf("%d ok, %d warning(s), %d error(s)",
		p.counts[statusOK], p.counts[statusWarn], p.counts[statusError])
}

func statusTag(kind statusKind) string {
	switch kind {
	case statusWarn:
		return "[WARN]"
	case statusError:
		return "[FAIL]"
	default:
		return "[ OK ]"
	}
}

func statusColor(kind statusKind) string {
	switch kind {
	case statusWarn:
		return "\x1b[33m"
	case statusError:
		return "\x1b[31m"
	default:
		return "\x1b[32m"
	}
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
