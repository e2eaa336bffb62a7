// Package output renders command results as styled text for terminals
// or as JSON for scripting.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Mode selects how command output is rendered.
type Mode string

const (
	// ModeAuto picks text on a TTY and json otherwise.
	ModeAuto Mode = "auto"
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

// Styles holds the lipgloss styles shared by all commands.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style
	ID      lipgloss.Style
}

func defaultStyles() *Styles {
	return &Styles{
		Header:  lipgloss.NewStyle().Bold(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		ID:      lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
}

// Renderer writes command output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styles *Styles
}

// NewRenderer creates a renderer for the given writers and mode.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	return &Renderer{out: out, errOut: errOut, mode: mode, styles: defaultStyles()}
}

// Writer returns the standard output writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// ErrWriter returns the error output writer.
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }

// Styles returns the renderer's style set.
func (r *Renderer) Styles() *Styles { return r.styles }

// IsTTY reports whether standard output is a terminal.
func (r *Renderer) IsTTY() bool {
	if f, ok := r.out.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// EffectiveMode resolves ModeAuto against the actual output destination.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.IsTTY() {
		return ModeText
	}
	return ModeJSON
}

// Println writes a line to standard output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to standard output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a bold section header.
func (r *Renderer) Header(text string) {
	r.Println(r.styles.Header.Render(text))
}

// Success writes a green status line.
func (r *Renderer) Success(text string) {
	r.Println(r.styles.Success.Render(text))
}

// Error writes a red status line to the error writer.
func (r *Renderer) Error(text string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render(text))
}

// Warning writes a yellow status line.
func (r *Renderer) Warning(text string) {
	r.Println(r.styles.Warning.Render(text))
}

// Muted writes a dim line.
func (r *Renderer) Muted(text string) {
	r.Println(r.styles.Muted.Render(text))
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
