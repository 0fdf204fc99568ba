package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/revuhq/revu/internal/models"
)

// UI provides colored output and interactive prompts. In, Out, and ErrOut
// are injectable so tests can script prompt answers and capture output.
type UI struct {
	Verbose bool
	In      io.Reader
	Out     io.Writer
	ErrOut  io.Writer

	reader *bufio.Reader
}

// New creates a UI with default stdin/stdout/stderr.
func New() *UI {
	return &UI{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("⚠")
	errorPrefix   = color.New(color.FgHiRed).Sprint("✗")
	verbosePrefix = color.New(color.FgHiBlue).Sprint("  →")
	cyan          = color.New(color.FgHiCyan).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
	red           = color.New(color.FgHiRed).SprintFunc()
)

// SeverityColor returns the severity string colored by rank.
func SeverityColor(sev models.Severity) string {
	switch sev {
	case models.SeverityCritical:
		return red(string(sev))
	case models.SeverityWarning:
		return yellow(string(sev))
	case models.SeveritySuggestion:
		return cyan(string(sev))
	default:
		return string(sev)
	}
}

func (u *UI) Info(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", infoPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) VerboseLog(format string, a ...any) {
	if u.Verbose {
		fmt.Fprintf(u.Out, "%s %s\n", verbosePrefix, fmt.Sprintf(format, a...))
	}
}

// Table creates a new tablewriter configured with consistent styling.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}

// ReadLine reads one line of operator input, with leading/trailing
// whitespace trimmed.
func (u *UI) ReadLine() (string, error) {
	if u.reader == nil {
		u.reader = bufio.NewReader(u.In)
	}
	line, err := u.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Prompt prints a label and reads a line of input.
func (u *UI) Prompt(label string) (string, error) {
	fmt.Fprintf(u.Out, "%s ", label)
	return u.ReadLine()
}

// Confirm asks a yes/no question. An empty answer takes the default.
func (u *UI) Confirm(label string, def bool) (bool, error) {
	hint := "[Y/n]"
	if !def {
		hint = "[y/N]"
	}
	answer, err := u.Prompt(fmt.Sprintf("%s %s", label, hint))
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Select asks the operator to pick a 1-based index from n options.
// It re-prompts on out-of-range or non-numeric input.
func (u *UI) Select(label string, n int) (int, error) {
	for {
		answer, err := u.Prompt(fmt.Sprintf("%s [1-%d]:", label, n))
		if err != nil {
			return 0, err
		}
		idx, err := strconv.Atoi(answer)
		if err != nil || idx < 1 || idx > n {
			u.Warning("Enter a number between 1 and %d", n)
			continue
		}
		return idx, nil
	}
}
