package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/stefanpenner/twy/pkg/score"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// printJSON writes v as indented JSON.
func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// emit prints v as JSON under --json, otherwise runs human.
func (a *app) emit(v any, human func()) error {
	if a.cfg.JSON {
		return a.printJSON(v)
	}
	human()
	return nil
}

// scoreColor colours a percentage by its band.
func scoreColor(p int) string {
	s := strconv.Itoa(p) + "%"
	switch score.BandFor(p) {
	case score.BandExcellent:
		return green(s)
	case score.BandGood, score.BandFair:
		return yellow(s)
	default:
		return red(s)
	}
}

// bar renders a 20-cell progress bar for a percentage.
func bar(p int) string {
	const width = 20
	filled := max(0, min(width, p*width/100))
	return strings.Repeat("█", filled) + faint(strings.Repeat("░", width-filled))
}

func checkMark(done bool) string {
	if done {
		return green("✓")
	}
	return "○"
}
