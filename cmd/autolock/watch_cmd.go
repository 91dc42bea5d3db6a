// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ManuGH/autolock/internal/api"
	"github.com/ManuGH/autolock/internal/config"
	"github.com/ManuGH/autolock/internal/platform/httpx"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const watchInterval = time.Second

var (
	watchTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	watchRunningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	watchPausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	watchErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	watchHelpStyle    = lipgloss.NewStyle().Faint(true)
)

func runWatchCLI(args []string) int {
	fs := flag.NewFlagSet("autolock watch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addr := fs.String("addr", config.DefaultStatusListenAddr, "status API address")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	m := newWatchModel(*addr, httpx.NewLocalClient(2*time.Second))
	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "watch failed: %v\n", err)
		return 1
	}
	return 0
}

type statusMsg api.StatusResponse

type statusErrMsg struct{ err error }

type pollMsg struct{}

type shutdownMsg struct{ err error }

// watchModel polls GET /api/v1/status once per second.
type watchModel struct {
	baseURL string
	client  *http.Client

	status   *api.StatusResponse
	err      error
	notice   string
	quitting bool
}

func newWatchModel(addr string, client *http.Client) *watchModel {
	base := strings.TrimRight(addr, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &watchModel{baseURL: base, client: client}
}

func (m *watchModel) Init() tea.Cmd {
	return m.fetch
}

func (m *watchModel) fetch() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/api/v1/status", nil)
	if err != nil {
		return statusErrMsg{err}
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return statusErrMsg{err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusErrMsg{fmt.Errorf("status API returned %s", resp.Status)}
	}
	var st api.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return statusErrMsg{fmt.Errorf("decode status: %w", err)}
	}
	return statusMsg(st)
}

func (m *watchModel) requestShutdown() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/v1/shutdown", nil)
	if err != nil {
		return shutdownMsg{err}
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return shutdownMsg{err}
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return shutdownMsg{fmt.Errorf("shutdown returned %s", resp.Status)}
	}
	return shutdownMsg{}
}

func poll() tea.Cmd {
	return tea.Tick(watchInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		case "x":
			return m, m.requestShutdown
		}
	case pollMsg:
		return m, m.fetch
	case statusMsg:
		st := api.StatusResponse(msg)
		m.status = &st
		m.err = nil
		return m, poll()
	case statusErrMsg:
		m.err = msg.err
		return m, poll()
	case shutdownMsg:
		if msg.err != nil {
			m.notice = "shutdown failed: " + msg.err.Error()
		} else {
			m.notice = "shutdown requested"
		}
	}
	return m, nil
}

func (m *watchModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(watchTitleStyle.Render("AutoLock"))
	b.WriteString("  " + watchHelpStyle.Render(m.baseURL))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(watchErrorStyle.Render("unreachable: " + m.err.Error()))
	case m.status == nil:
		b.WriteString("connecting...")
	case m.status.Running:
		b.WriteString(watchRunningStyle.Render(statusLine(m.status)))
	default:
		b.WriteString(watchPausedStyle.Render(statusLine(m.status)))
	}
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString("\n" + m.notice + "\n")
	}
	b.WriteString("\n" + watchHelpStyle.Render("q quit, x close AutoLock"))
	b.WriteString("\n")
	return b.String()
}

// statusLine prefers the daemon's localised text and falls back to a plain rendering.
func statusLine(st *api.StatusResponse) string {
	if st.Text != "" {
		return st.Text
	}
	if !st.Running {
		return "paused"
	}
	remaining := time.Duration(st.RemainingSeconds) * time.Second
	return fmt.Sprintf("%d min %d s remaining", int(remaining.Minutes()), int(remaining.Seconds())%60)
}
