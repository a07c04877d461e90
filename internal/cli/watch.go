package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/whiteboard/pkg/client"
	"github.com/matzehuels/whiteboard/pkg/element"
	wberrors "github.com/matzehuels/whiteboard/pkg/errors"
	"github.com/matzehuels/whiteboard/pkg/storage"
	"github.com/matzehuels/whiteboard/pkg/transport/ws"
)

// Watch styles
var (
	watchSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	watchDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	watchBannerStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Background(colorRed).Padding(0, 1)
)

// watchCommand creates the watch command, a terminal client for one board.
func (c *CLI) watchCommand() *cobra.Command {
	var shareWith, logFile string

	cmd := &cobra.Command{
		Use:   "watch [canvas-id]",
		Short: "Follow a live board in the terminal",
		Long: `Join a board through the relay and list its elements as they change.

Keys: u undo, r redo, ↑/↓ scroll, q quit. Undo and redo are broadcast to
everyone on the board like any other change.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wberrors.ValidateCanvasID(args[0]); err != nil {
				return err
			}
			cfg, err := c.clientConfig()
			if err != nil {
				return err
			}

			// the TUI owns the terminal, so engine logs go to a file or nowhere
			logger := log.NewWithOptions(io.Discard, log.Options{})
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return err
				}
				defer f.Close()
				logger = newLogger(f, c.Logger.GetLevel())
			}

			return runWatch(cmd.Context(), watchOpts{
				canvasID: args[0],
				server:   cfg.Client.Server,
				api:      cfg.Client.API,
				token:    cfg.Client.Token,
				debounce: cfg.Client.Debounce.Duration,
				share:    shareWith,
				logger:   logger,
			})
		},
	}

	cmd.Flags().StringVar(&shareWith, "share", "", "share the board with this user after joining")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write engine logs to this file")
	return cmd
}

type watchOpts struct {
	canvasID string
	server   string
	api      string
	token    string
	debounce time.Duration
	share    string
	logger   *log.Logger
}

func runWatch(ctx context.Context, opts watchOpts) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	views := make(chan client.View, 1)
	conns := make(chan bool, 4)

	var cl *client.Client
	tr := ws.New(opts.server, opts.token,
		ws.WithLogger(opts.logger),
		ws.WithOnConnect(func(reconnect bool) {
			if reconnect {
				cl.Rejoin()
			}
			select {
			case conns <- reconnect:
			default:
			}
		}),
	)
	clientOpts := []client.Option{
		client.WithLoader(storage.NewClient(opts.api, opts.token)),
		client.WithLogger(opts.logger),
		client.WithOnChange(func(v client.View) { latest(views, v) }),
	}
	if opts.debounce > 0 {
		clientOpts = append(clientOpts, client.WithDebounce(opts.debounce))
	}
	cl = client.New(tr, clientOpts...)

	m := newWatchModel(opts.canvasID, views, conns)
	m.undo, m.redo = cl.Undo, cl.Redo
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	go func() { _ = tr.Run(ctx) }()
	go func() {
		if err := cl.Run(ctx); err != nil {
			p.Send(watchErrMsg{err})
		}
	}()
	go func() {
		if err := cl.Enter(ctx, opts.canvasID); err != nil {
			opts.logger.Warn("join not sent yet", "err", err)
		}
		if opts.share == "" {
			return
		}
		if err := cl.Share(ctx, opts.share); err != nil {
			p.Send(watchErrMsg{err})
		}
	}()

	final, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	if fm, ok := final.(watchModel); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

// latest replaces any unread view in ch with v. It never blocks the client's
// event loop.
func latest(ch chan client.View, v client.View) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

// =============================================================================
// watchModel - Live board view
// =============================================================================

type (
	watchViewMsg client.View
	watchConnMsg struct{ reconnect bool }
	watchErrMsg  struct{ err error }
)

// watchModel is the bubbletea model of the watch command.
type watchModel struct {
	canvasID   string
	view       client.View
	connected  bool
	reconnects int
	err        error

	cursor int
	offset int
	height int

	undo, redo func()
	views      <-chan client.View
	conns      <-chan bool
}

func newWatchModel(canvasID string, views <-chan client.View, conns <-chan bool) watchModel {
	return watchModel{
		canvasID: canvasID,
		height:   15,
		undo:     func() {},
		redo:     func() {},
		views:    views,
		conns:    conns,
	}
}

func (m watchModel) waitView() tea.Cmd {
	return func() tea.Msg {
		v, ok := <-m.views
		if !ok {
			return nil
		}
		return watchViewMsg(v)
	}
}

func (m watchModel) waitConn() tea.Cmd {
	return func() tea.Msg {
		r, ok := <-m.conns
		if !ok {
			return nil
		}
		return watchConnMsg{reconnect: r}
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.waitView(), m.waitConn())
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case watchViewMsg:
		m.view = client.View(msg)
		if m.cursor >= len(m.view.Elements) {
			m.cursor = max(len(m.view.Elements)-1, 0)
		}
		m.clampOffset()
		return m, m.waitView()
	case watchConnMsg:
		m.connected = true
		if msg.reconnect {
			m.reconnects++
		}
		return m, m.waitConn()
	case watchErrMsg:
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "u", "ctrl+z":
			if m.view.CanUndo && m.view.Authorized {
				m.undo()
			}
		case "r", "ctrl+y":
			if m.view.CanRedo && m.view.Authorized {
				m.redo()
			}
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			m.clampOffset()
		case "down", "j":
			if m.cursor < len(m.view.Elements)-1 {
				m.cursor++
			}
			m.clampOffset()
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-10, 5)
		m.clampOffset()
	}
	return m, nil
}

func (m *watchModel) clampOffset() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Board " + m.canvasID))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	if banner := m.banner(); banner != "" {
		b.WriteString(watchBannerStyle.Render(banner))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(m.view.Elements) == 0 {
		b.WriteString(watchDimStyle.Render("  (empty board)"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table())
		b.WriteString("\n")
		b.WriteString(watchDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.view.Elements))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(watchDimStyle.Render(m.helpLine()))
	return b.String()
}

func (m watchModel) statusLine() string {
	conn := StyleWarning.Render("○ connecting")
	if m.connected {
		conn = StyleSuccess.Render("● connected")
		if m.reconnects > 0 {
			conn += StyleDim.Render(fmt.Sprintf(" (reconnected %d×)", m.reconnects))
		}
	}
	parts := []string{conn}
	if m.view.Loaded != "" {
		parts = append(parts, StyleDim.Render("loaded from "+m.view.Loaded))
	}
	parts = append(parts, StyleDim.Render(fmt.Sprintf("%d elements", len(m.view.Elements))))
	return "  " + strings.Join(parts, StyleDim.Render(" · "))
}

// banner returns the access notice, if the board is read-only.
func (m watchModel) banner() string {
	switch {
	case m.view.Denied != "":
		return "read-only: " + m.view.Denied
	case m.view.CanvasID != "" && !m.view.Authorized:
		return "read-only"
	}
	return ""
}

func (m watchModel) helpLine() string {
	keys := []string{"↑/↓ scroll"}
	if m.view.Authorized && m.view.CanUndo {
		keys = append(keys, "u undo")
	}
	if m.view.Authorized && m.view.CanRedo {
		keys = append(keys, "r redo")
	}
	keys = append(keys, "q quit")
	return strings.Join(keys, "  ")
}

func (m watchModel) table() string {
	end := min(m.offset+m.height, len(m.view.Elements))
	rows := make([][]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		rows = append(rows, append([]string{cursor}, elementRow(m.view.Elements[i])...))
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Type", "From", "To", "Stroke", "Size", "Detail").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.offset+row == m.cursor {
				return watchSelectedStyle
			}
			if !element.Type(rows[row][2]).Valid() {
				return watchDimStyle
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// elementRow formats one element for the table.
func elementRow(e element.Element) []string {
	detail := ""
	switch e.Type {
	case element.Brush:
		detail = fmt.Sprintf("%d points", len(e.Points))
	case element.Text:
		detail = fmt.Sprintf("%q", truncate(e.Text, 24))
	}
	return []string{
		fmt.Sprintf("%d", e.ID),
		string(e.Type),
		fmt.Sprintf("%.0f,%.0f", e.X1, e.Y1),
		fmt.Sprintf("%.0f,%.0f", e.X2, e.Y2),
		e.Stroke,
		fmt.Sprintf("%g", e.Size),
		detail,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
