// Package ui renders sqlexpress CLI output: status lines, result tables and
// error reports.
//
// Color usage:
//   - Red: errors
//   - Yellow: warnings
//   - Green: success
//   - Cyan: informational messages and counts
//   - Bold: headers
//   - Dim: NULL cells and secondary details
package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite"
)

// Pre-configured color instances for consistent CLI output.
var (
	Red    = color.New(color.FgRed)
	Yellow = color.New(color.FgYellow)
	Green  = color.New(color.FgGreen)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
)

// InitColors applies a color mode: "always", "never", or "auto" to let
// fatih/color decide from the terminal and NO_COLOR.
func InitColors(mode string) {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	}
}

// Success prints a green message with a checkmark prefix.
func Success(w io.Writer, format string, args ...any) {
	_, _ = Green.Fprintf(w, "✓ "+format+"\n", args...)
}

// Warning prints a yellow message with a warning prefix.
func Warning(w io.Writer, format string, args ...any) {
	_, _ = Yellow.Fprintf(w, "⚠ "+format+"\n", args...)
}

// Info prints a cyan message with an info prefix.
func Info(w io.Writer, format string, args ...any) {
	_, _ = Cyan.Fprintf(w, "ℹ "+format+"\n", args...)
}

// Header prints a bold header with an underline separator.
func Header(w io.Writer, text string) {
	_, _ = Bold.Fprintln(w, text)
	fmt.Fprintln(w, strings.Repeat("=", utf8.RuneCountInString(text)))
}

// Error prints err in red. Engine errors are shown with their result code
// and category so scripts can grep for them.
func Error(w io.Writer, err error) {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code
		_, _ = Red.Fprintf(w, "✗ %s (%d) [%s]: %v\n", code.Name(), int(code), code.Category(), err)
		return
	}
	_, _ = Red.Fprintf(w, "✗ %v\n", err)
}

// Label returns a bold label for inline use.
func Label(text string) string {
	return Bold.Sprint(text)
}

// CountText returns a cyan count.
func CountText(n int64) string {
	return Cyan.Sprint(n)
}
