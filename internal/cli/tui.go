package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/shapecloud/pkg/cloud/place"
	"github.com/matzehuels/shapecloud/pkg/pipeline"
)

// progressInterval throttles attempt updates that placed no word.
const progressInterval = 50 * time.Millisecond

const barWidth = 30

var (
	barFilledStyle = lipgloss.NewStyle().Foreground(colorCyan)
	barTargetStyle = lipgloss.NewStyle().Foreground(colorYellow)
	barEmptyStyle  = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Messages
// =============================================================================

type progressMsg place.Progress

type doneMsg struct {
	result *pipeline.Result
	err    error
}

// =============================================================================
// progressModel - live placement view
// =============================================================================

// progressModel is the bubbletea model behind render --progress. It shows
// the fill ratio against the target ratio, the attempts used and the last
// placed word.
type progressModel struct {
	text   string
	target float64
	start  time.Time

	latest place.Progress
	last   string // last placed word

	result *pipeline.Result
	err    error
	done   bool
}

func newProgressModel(opts pipeline.Options) progressModel {
	return progressModel{
		text:   opts.Text,
		target: opts.Ratio,
		start:  time.Now(),
		latest: place.Progress{MaxTries: opts.MaxTries},
	}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.err = context.Canceled
			m.done = true
			return m, tea.Quit
		}
	case progressMsg:
		m.latest = place.Progress(msg)
		if msg.Word != nil {
			m.last = msg.Word.Text
		}
	case doneMsg:
		m.result, m.err, m.done = msg.result, msg.err, true
		if msg.result != nil {
			st := msg.result.Scene.Stats
			m.latest.Attempts = st.Attempts
			m.latest.FillRatio = st.FillRatio
			m.latest.Placed = len(msg.result.Scene.Words)
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	var b strings.Builder

	title := "Filling " + StyleHighlight.Render(fmt.Sprintf("%q", m.text))
	if m.done {
		title = StyleSuccess.Render(iconSuccess) + " " + title
	}
	b.WriteString(title)
	b.WriteString("\n")

	b.WriteString("  ")
	b.WriteString(fillBar(m.latest.FillRatio, m.target, barWidth))
	b.WriteString(" ")
	b.WriteString(StyleNumber.Render(fmt.Sprintf("%5.1f%%", m.latest.FillRatio*100)))
	b.WriteString(StyleDim.Render(fmt.Sprintf(" of %.0f%%", m.target*100)))
	b.WriteString("\n")

	stats := fmt.Sprintf("  %d words · %d/%d tries · %s",
		m.latest.Placed, m.latest.Attempts, m.latest.MaxTries,
		time.Since(m.start).Round(100*time.Millisecond))
	if m.last != "" && !m.done {
		stats += " · " + m.last
	}
	b.WriteString(StyleDim.Render(stats))
	b.WriteString("\n")
	return b.String()
}

// fillBar draws a bar of width cells, filled up to ratio, with the target
// marked.
func fillBar(ratio, target float64, width int) string {
	filled := clampCells(ratio, width)
	mark := clampCells(target, width)
	if mark >= width {
		mark = width - 1
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i < filled:
			b.WriteString(barFilledStyle.Render("█"))
		case i == mark:
			b.WriteString(barTargetStyle.Render("│"))
		default:
			b.WriteString(barEmptyStyle.Render("░"))
		}
	}
	return b.String()
}

func clampCells(ratio float64, width int) int {
	n := int(ratio*float64(width) + 0.5)
	return max(0, min(width, n))
}

// =============================================================================
// Runner
// =============================================================================

// runWithProgress executes the pipeline while rendering the live view to
// out. Keyboard input is not read; interrupts arrive through ctx.
func runWithProgress(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, out io.Writer) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(opts),
		tea.WithContext(ctx),
		tea.WithOutput(out),
		tea.WithInput(nil),
	)

	var last time.Time
	opts.Progress = func(pr place.Progress) {
		if pr.Word == nil && time.Since(last) < progressInterval {
			return
		}
		last = time.Now()
		p.Send(progressMsg(pr))
	}

	go func() {
		result, err := runner.Execute(ctx, opts)
		p.Send(doneMsg{result: result, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	m := final.(progressModel)
	return m.result, m.err
}
