package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"

	"go.jacobcolvin.com/snout/drill"
	"go.jacobcolvin.com/snout/log"
	"go.jacobcolvin.com/snout/openapi"
)

const tailLines = 200

// runTUI drives the run inside a Bubble Tea program. Logs are redirected to
// an in-memory tail and rendered in a pane below the operation list; the
// summary table is printed to stdout after the program exits.
func runTUI(ctx context.Context, cfg *drill.Config, logCfg *log.Config, doc *openapi.Document) error {
	tail := log.NewTail(tailLines)

	handler, err := logCfg.NewHandler(tail)
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(handler))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(tail, cancel))

	runner := cfg.NewRunner(drill.WithObserver(programObserver{p: p}))

	go func() {
		results, runErr := runner.Run(ctx, doc)
		p.Send(doneMsg{results: results, err: runErr})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("running ui: %w", err)
	}

	m, ok := finalModel.(*model)
	if !ok {
		return nil
	}

	if m.err != nil && !m.quitting {
		return m.err
	}

	return writeResults(os.Stdout, m.results, "table")
}

// Messages delivered from the runner goroutine.
type (
	runStartedMsg struct{ ops []drill.Op }
	opStartedMsg  struct{}

	resultMsg struct {
		result drill.Result
	}

	doneMsg struct {
		err     error
		results [][]drill.Result
	}

	logMsg struct{}
)

// programObserver forwards run progress into the program's message loop.
type programObserver struct {
	p *tea.Program
}

func (o programObserver) RunStarted(ops []drill.Op) {
	o.p.Send(runStartedMsg{ops: ops})
}

func (o programObserver) OperationStarted(drill.Op) {
	o.p.Send(opStartedMsg{})
}

func (o programObserver) OperationResult(_ drill.Op, result drill.Result) {
	o.p.Send(resultMsg{result: result})
}

// opState tracks progress for one operation row.
type opState struct {
	op       drill.Op
	requests int
	last     int
}

func (st opState) summary() string {
	switch st.requests {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("1 request, last %d", st.last)
	}

	return fmt.Sprintf("%d requests, last %d", st.requests, st.last)
}

// model is the bubbletea model for a drill run.
type model struct {
	tail     *log.Tail
	cancel   context.CancelFunc
	err      error
	ops      []opState
	results  [][]drill.Result
	logLines []string
	buf      strings.Builder
	width    int
	height   int
	current  int
	done     bool
	quitting bool
}

func newModel(tail *log.Tail, cancel context.CancelFunc) *model {
	return &model{
		tail:    tail,
		cancel:  cancel,
		current: -1,
	}
}

// Init starts listening for log output.
func (m *model) Init() tea.Cmd {
	return waitForLogs(m.tail)
}

// Update handles progress, log, resize, and quit messages.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			m.cancel()

			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case runStartedMsg:
		m.ops = make([]opState, len(msg.ops))
		for i, op := range msg.ops {
			m.ops[i] = opState{op: op}
		}

	case opStartedMsg:
		m.current++
		m.results = append(m.results, nil)

	case resultMsg:
		if m.current < 0 {
			return m, nil
		}

		if m.current < len(m.ops) {
			m.ops[m.current].requests++
			m.ops[m.current].last = msg.result.StatusCode
		}

		if m.current < len(m.results) {
			m.results[m.current] = append(m.results[m.current], msg.result)
		}

	case doneMsg:
		m.done = true
		m.err = msg.err

		if msg.results != nil {
			m.results = msg.results
		}

		return m, tea.Quit

	case logMsg:
		m.logLines = m.tail.Lines()

		return m, waitForLogs(m.tail)
	}

	return m, nil
}

// View renders the operation list over a log pane.
func (m *model) View() tea.View {
	m.buf.Reset()

	fmt.Fprintf(&m.buf, "\n  snout  %s\n\n", m.phase())

	for i, st := range m.ops {
		marker := "·"
		switch {
		case m.done || i < m.current:
			marker = "✓"
		case i == m.current:
			marker = "▶"
		}

		line := fmt.Sprintf("  %s %-4s %-40s %s", marker, st.op.Method, st.op.Path, st.summary())
		fmt.Fprintln(&m.buf, truncate(line, m.width))
	}

	m.buf.WriteString("\n  logs\n")

	for _, line := range lastN(m.logLines, m.logHeight()) {
		fmt.Fprintf(&m.buf, "  %s\n", truncate(line, max(m.width-2, 0)))
	}

	m.buf.WriteString("\n  q quit\n")

	v := tea.NewView(m.buf.String())
	v.AltScreen = true

	return v
}

func (m *model) phase() string {
	switch {
	case m.quitting:
		return "aborted"
	case m.done && m.err != nil:
		return "failed"
	case m.done:
		return "done"
	case len(m.ops) == 0:
		return "collecting operations"
	}

	return fmt.Sprintf("drilling %d operations", len(m.ops))
}

// logHeight budgets the log pane from the remaining terminal rows.
func (m *model) logHeight() int {
	if m.height == 0 {
		return 6
	}

	h := m.height - len(m.ops) - 7
	if h < 3 {
		h = 3
	}

	if h > 10 {
		h = 10
	}

	return h
}

// waitForLogs blocks until the tail reports new lines.
func waitForLogs(tail *log.Tail) tea.Cmd {
	return func() tea.Msg {
		<-tail.C()

		return logMsg{}
	}
}

func lastN(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}

	return lines[len(lines)-n:]
}
