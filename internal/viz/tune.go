package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/casim/internal/optim"
)

const barWidth = 30

// GenerationMsg carries one ranked generation into the view.
type GenerationMsg optim.GenerationStats

// DoneMsg ends the view once the search has returned.
type DoneMsg struct {
	Result *optim.TuneResult
	Err    error
}

// TuneModel shows a running genetic search. Cancel, if set, is called when
// the user quits before the search finishes.
type TuneModel struct {
	Controller  string
	Generations int
	Cancel      func()

	history  []optim.GenerationStats
	result   *optim.TuneResult
	err      error
	done     bool
	quitting bool
}

func NewTuneModel(controller string, generations int, cancel func()) TuneModel {
	return TuneModel{
		Controller:  controller,
		Generations: generations,
		Cancel:      cancel,
	}
}

func (m TuneModel) Init() tea.Cmd { return nil }

func (m TuneModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			if m.Cancel != nil && !m.done {
				m.Cancel()
			}
			if m.done {
				return m, tea.Quit
			}
		}
	case GenerationMsg:
		m.history = append(m.history, optim.GenerationStats(msg))
	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m TuneModel) History() []optim.GenerationStats { return m.history }

func (m TuneModel) Done() bool { return m.done }

func (m TuneModel) Err() error { return m.err }

func (m TuneModel) View() string {
	var s strings.Builder
	s.WriteString(Title.Render(fmt.Sprintf("tuning %s gains", strings.ToUpper(m.Controller))))
	s.WriteString("\n\n")

	gen := len(m.history)
	pct := 0.0
	if m.Generations > 0 {
		pct = float64(gen) / float64(m.Generations)
	}
	s.WriteString(fmt.Sprintf("%s %d/%d\n\n", ProgressBar(pct, barWidth), gen, m.Generations))

	if gen > 0 {
		last := m.history[gen-1]
		best := make([]float64, gen)
		for i, h := range m.history {
			best[i] = h.Best
		}
		s.WriteString(KeyValues([][2]string{
			{"best fitness", formatFloat(last.Best)},
			{"mean fitness", formatFloat(last.Mean)},
			{"best gains", last.BestGains.String()},
		}))
		s.WriteString("\n\n")
		s.WriteString(Sparkline(best, barWidth))
		s.WriteString("\n")
	}

	switch {
	case m.err != nil:
		s.WriteString("\n" + StatusWarn.Render("stopped: "+m.err.Error()) + "\n")
	case m.done:
		status := "finished"
		if m.result != nil && m.result.Converged {
			status = "converged"
		}
		s.WriteString("\n" + StatusOK.Render(status) + "\n")
	case m.quitting:
		s.WriteString("\n" + StatusWarn.Render("stopping after this generation...") + "\n")
	default:
		s.WriteString("\n" + KeyHint.Render("q: stop and keep best so far") + "\n")
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(s.String())
}
