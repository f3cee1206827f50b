package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"mofox-ui/pkg/startup"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	pathStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// startupLog prints human-facing startup progress. Colors are only used on
// a terminal.
type startupLog struct {
	w     io.Writer
	isTTY bool
	mu    sync.Mutex
}

func newStartupLog(w io.Writer, isTTY bool) *startupLog {
	return &startupLog{w: w, isTTY: isTTY}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (s *startupLog) render(style lipgloss.Style, text string) string {
	if !s.isTTY {
		return text
	}
	return style.Render(text)
}

func (s *startupLog) line(mark string, style lipgloss.Style, msg, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if detail != "" {
		fmt.Fprintf(s.w, "%s %s %s\n", s.render(style, mark), msg, s.render(pathStyle, detail))
		return
	}
	fmt.Fprintf(s.w, "%s %s\n", s.render(style, mark), msg)
}

// Step prints a completed step with a checkmark.
func (s *startupLog) Step(msg, detail string) {
	s.line("✓", okStyle, msg, detail)
}

// Warn prints a non-fatal problem.
func (s *startupLog) Warn(msg string) {
	s.line("!", warnStyle, msg, "")
}

// Fail prints a fatal problem.
func (s *startupLog) Fail(msg string) {
	s.line("✗", failStyle, msg, "")
}

// State prints the outcome of discovery.
func (s *startupLog) State(st *startup.State) {
	if !st.OK() {
		s.Fail(st.Message())
	}
	if st.Paths.Bot != "" {
		s.Step("bot config", st.Paths.Bot)
	}
	if st.Paths.Model != "" {
		s.Step("model config", st.Paths.Model)
	}
	if st.Paths.Napcat != "" {
		s.Step("napcat adapter config", st.Paths.Napcat)
	}
	if st.LogPath != "" {
		s.Step("log file", st.LogPath)
	}
	for _, w := range st.Warnings {
		s.Warn(w)
	}
}
