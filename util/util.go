// Package util holds small helpers shared by the CLI and the TUI.
package util

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/seamui/seamui/filesystem"
	"golang.org/x/exp/constraints"
	"golang.org/x/term"
)

var (
	invalidFilenameChars = regexp.MustCompile(`[\\/<>:;"'|?!*{}#%&^+,~\s]`)
	repeatedUnderscores  = regexp.MustCompile(`__+`)
	edgeSeparators       = regexp.MustCompile(`^[_\-.]+|[_\-.]+$`)
)

// SanitizeFilename makes s safe to use as a file name on every OS.
func SanitizeFilename(s string) string {
	s = invalidFilenameChars.ReplaceAllString(s, "_")
	s = repeatedUnderscores.ReplaceAllString(s, "_")
	return edgeSeparators.ReplaceAllString(s, "")
}

// Quantify formats count with the matching noun.
func Quantify(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// Capitalize upper-cases the first letter.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// TerminalSize returns the size of the terminal attached to stdout.
func TerminalSize() (width, height int, err error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

// PrintErasable prints msg on the current line and returns a func that wipes it.
func PrintErasable(msg string) (eraser func()) {
	_, _ = fmt.Fprintf(os.Stdout, "\r%s", msg)
	return func() {
		_, _ = fmt.Fprintf(os.Stdout, "\r%s\r", strings.Repeat(" ", len(msg)))
	}
}

// Ignore calls f and drops its error. Meant for deferred Close calls.
func Ignore(f func() error) {
	_ = f()
}

func Max[T constraints.Ordered](items ...T) (max T) {
	if len(items) == 0 {
		return
	}
	max = items[0]
	for _, item := range items[1:] {
		if item > max {
			max = item
		}
	}
	return
}

func Min[T constraints.Ordered](items ...T) (min T) {
	if len(items) == 0 {
		return
	}
	min = items[0]
	for _, item := range items[1:] {
		if item < min {
			min = item
		}
	}
	return
}

// Delete removes path, recursively if it is a directory.
func Delete(path string) error {
	fs := filesystem.API()
	stat, err := fs.Stat(path)
	if err != nil {
		return err
	}

	if stat.IsDir() {
		return fs.RemoveAll(path)
	}
	return fs.Remove(path)
}
