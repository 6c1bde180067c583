package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 100 * time.Millisecond

// status line kinds, rendered with a coloured mark on terminals
type statusKind struct {
	mark  string
	plain string // prefix when not on a terminal
	style lipgloss.Style
}

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)

	statusSuccess = statusKind{mark: "✓", style: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)}
	statusError   = statusKind{mark: "✗", style: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)}
	statusInfo    = statusKind{mark: "ℹ", style: spinnerStyle}
	statusWarning = statusKind{mark: "⚠", plain: "WARNING: ", style: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)}
)

// ShowProgress runs wait behind a spinner on stderr. Outside a terminal it
// just waits.
func ShowProgress(ctx context.Context, message string, wait func() error) error {
	if !isTerminal(os.Stderr) {
		LogDebug(message)
		return wait()
	}
	return spin(ctx, os.Stderr, message, wait)
}

// spin animates message on w until fn returns or ctx ends. fn keeps running
// in the background if ctx ends first.
func spin(ctx context.Context, w io.Writer, message string, fn func() error) error {
	result := make(chan error, 1)
	go func() { result <- fn() }()

	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()
	defer fmt.Fprint(w, "\r\033[K")

	for frame := 0; ; frame++ {
		select {
		case err := <-result:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fmt.Fprintf(w, "\r%s %s", spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]), message)
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}

func printStatus(w io.Writer, kind statusKind, message string) {
	if isTerminal(w) {
		fmt.Fprintf(w, "%s %s\n", kind.style.Render(kind.mark), message)
		return
	}
	fmt.Fprintln(w, kind.plain+message)
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) { printStatus(w, statusSuccess, message) }

// PrintError prints an error message
func PrintError(w io.Writer, message string) { printStatus(w, statusError, message) }

// PrintInfo prints an info message
func PrintInfo(w io.Writer, message string) { printStatus(w, statusInfo, message) }

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) { printStatus(w, statusWarning, message) }
