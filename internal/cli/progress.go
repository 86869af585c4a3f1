package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const barWidth = 30

// Theme holds the color scheme for terminal output.
type Theme struct {
	Status     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Hint       lipgloss.Color
	ProgressBg lipgloss.Color
}

var defaultTheme = Theme{
	Status:     lipgloss.Color("#5FAFD7"),
	Success:    lipgloss.Color("#00D787"),
	Error:      lipgloss.Color("#FF005F"),
	Hint:       lipgloss.Color("#6C6C6C"),
	ProgressBg: lipgloss.Color("#3A3A3A"),
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint)
}

func (t Theme) emptyStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.ProgressBg)
}

// progressBar redraws a single status line on a terminal. On anything else it
// stays silent so piped output only carries the summary.
type progressBar struct {
	mu       sync.Mutex
	out      io.Writer
	enabled  bool
	theme    Theme
	total    int
	rendered bool
}

// newProgressBar enables drawing only when out is a terminal.
func newProgressBar(out io.Writer, total int, theme Theme) *progressBar {
	return &progressBar{
		out:     out,
		enabled: isTerminal(out),
		theme:   theme,
		total:   total,
	}
}

// Update redraws the bar for percent. Safe to use as a convert.ProgressFunc.
func (p *progressBar) Update(percent int) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, "\r"+p.Render(percent))
	p.rendered = true
}

// Render returns the bar line for percent without writing it.
func (p *progressBar) Render(percent int) string {
	percent = min(max(percent, 0), 100)
	filled := barWidth * percent / 100

	bar := p.theme.successStyle().Render(strings.Repeat("█", filled)) +
		p.theme.emptyStyle().Render(strings.Repeat("░", barWidth-filled))
	label := p.theme.statusStyle().Render(fmt.Sprintf("Converting %s", pluralFiles(p.total)))
	return fmt.Sprintf("  %s %s %3d%%", label, bar, percent)
}

// Clear erases the bar line if anything was drawn.
func (p *progressBar) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLocked()
}

func (p *progressBar) clearLocked() {
	if !p.rendered {
		return
	}
	fmt.Fprintf(p.out, "\r%s\r", strings.Repeat(" ", barWidth+40))
	p.rendered = false
}

// Write erases the bar before passing b through, so log lines sharing the
// terminal never land on top of it. The next Update redraws the bar.
func (p *progressBar) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLocked()
	return p.out.Write(b)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
