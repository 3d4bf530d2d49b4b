// Package tui is the interactive chat surface: one input line producing
// query/utterance events, a transcript of source-tagged replies, and a
// /load command that replaces the document corpus.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"learnbot/internal/config"
	"learnbot/internal/session"
)

// ChatPort is the TUI-facing subset of the conversation session.
type ChatPort interface {
	Handle(ctx context.Context, utterance string) (session.Reply, error)
}

// IngestPort loads a document and replaces the corpus, returning the
// passage count and a short summary of the document.
type IngestPort interface {
	IngestDocument(ctx context.Context, path string) (int, string, error)
}

type entry struct {
	who  string
	text string
	bot  bool
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	chat    ChatPort
	ingest  IngestPort
	prompts config.PromptsConfig

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model

	transcript []entry
	status     string
	busy       bool
	ready      bool

	cancelIngest context.CancelFunc
}

type replyMsg struct {
	reply session.Reply
	err   error
}

type ingestMsg struct {
	path    string
	count   int
	summary string
	err     error
}

// ReloadMsg is sent from outside the program when the knowledge file was
// reloaded after an external edit.
type ReloadMsg struct{ Count int }

// New creates a new chat model.
func New(chat ChatPort, ingest IngestPort, prompts config.PromptsConfig) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question, or /load <file> to read a document"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		chat:    chat,
		ingest:  ingest,
		prompts: prompts,
		input:   ti,
		viewport: viewport.New(0, 0),
		spin:     sp,
		status:   "Ready. Type a question and press Enter.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and completion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // header + status + input frame + spacer
		vh := msg.Height - reserved - fh
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = vh
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.busy {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.SetValue("")
			if path, ok := strings.CutPrefix(text, "/load "); ok {
				return m.startIngest(strings.TrimSpace(path))
			}
			return m.startQuery(text)
		case "esc":
			if m.cancelIngest != nil {
				m.cancelIngest()
				m.status = "Cancelling document load..."
				return m, nil
			}
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}

	case replyMsg:
		m.busy = false
		m.appendReply(msg)
		return m, nil

	case ingestMsg:
		m.busy = false
		if m.cancelIngest != nil {
			m.cancelIngest()
			m.cancelIngest = nil
		}
		m.appendIngest(msg)
		return m, nil

	case ReloadMsg:
		m.status = fmt.Sprintf("Knowledge base reloaded from disk (%d questions).", msg.Count)
		return m, nil

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) startQuery(text string) (tea.Model, tea.Cmd) {
	m.transcript = append(m.transcript, entry{who: "you", text: text})
	m.busy = true
	m.status = "Thinking..."
	m.refreshTranscript()
	chat := m.chat
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		reply, err := chat.Handle(context.Background(), text)
		return replyMsg{reply: reply, err: err}
	})
}

func (m Model) startIngest(path string) (tea.Model, tea.Cmd) {
	if path == "" {
		m.status = "Usage: /load <file>"
		return m, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelIngest = cancel
	m.busy = true
	m.status = "Reading document... (esc to cancel)"
	ingest := m.ingest
	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		count, summary, err := ingest.IngestDocument(ctx, path)
		return ingestMsg{path: path, count: count, summary: summary, err: err}
	})
}

func (m *Model) appendReply(msg replyMsg) {
	if msg.err != nil {
		// persistence failure while teaching: the pending question is kept,
		// so tell the user to just try again
		m.transcript = append(m.transcript, entry{
			who: "bot", bot: true,
			text: "I couldn't save that: " + msg.err.Error() + " Please try again.",
		})
		m.status = "Save failed."
		m.refreshTranscript()
		return
	}
	switch msg.reply.Kind {
	case session.ReplyAnswer:
		tag := msg.reply.Answer.Source.String()
		m.transcript = append(m.transcript, entry{
			who: "bot (" + tag + ")", bot: true,
			text: msg.reply.Answer.Text,
		})
		m.status = fmt.Sprintf("Answer from %s, score %.2f.", tag, msg.reply.Answer.Score)
	case session.ReplyTeachPrompt:
		m.transcript = append(m.transcript,
			entry{who: "bot", bot: true, text: m.prompts.Fallback},
			entry{who: "bot", bot: true, text: m.prompts.Teach},
		)
		m.status = "Waiting to be taught."
	case session.ReplyLearned:
		m.transcript = append(m.transcript, entry{who: "bot", bot: true, text: m.prompts.Learned})
		m.status = "New answer saved."
	}
	m.refreshTranscript()
}

func (m *Model) appendIngest(msg ingestMsg) {
	if msg.err != nil {
		m.transcript = append(m.transcript, entry{
			who: "bot", bot: true,
			text: "I couldn't read that document: " + msg.err.Error(),
		})
		m.status = "Document load failed."
		m.refreshTranscript()
		return
	}
	text := fmt.Sprintf("Loaded %s: %d passages ready for questions.", msg.path, msg.count)
	if msg.summary != "" {
		text += "\nIn short: " + msg.summary
	}
	m.transcript = append(m.transcript, entry{who: "bot", bot: true, text: text})
	m.status = "Document loaded."
	m.refreshTranscript()
}

func (m *Model) refreshTranscript() {
	var b strings.Builder
	for i, e := range m.transcript {
		if i > 0 {
			b.WriteString("\n")
		}
		name := userNameStyle
		body := userMsgStyle
		if e.bot {
			name = botNameStyle
			body = botMsgStyle
		}
		b.WriteString(name.Render(e.who+":") + "\n")
		b.WriteString(body.Width(max(20, m.viewport.Width-2)).Render(e.text) + "\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("learnbot")
	chat := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := m.status
	if m.busy {
		status = m.spin.View() + " " + status
	}
	return header + "\n" + chat + "\n" + input + "\n" + statusStyle.Render(status)
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true)
	chatBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userNameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	userMsgStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	botNameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(true)
	botMsgStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
