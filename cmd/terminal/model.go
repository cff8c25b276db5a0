package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/sevigo/code-pilot/internal/app"
	"github.com/sevigo/code-pilot/internal/core"
	"github.com/sevigo/code-pilot/internal/llm"
)

const asciiLogo = `
╔═══════════════════════════════════════════════════════════════════════════╗
║                                                                           ║
║    ██████╗ ██████╗ ██████╗ ███████╗   ██████╗ ██╗██╗      ██████╗ ████████╗║
║   ██╔════╝██╔═══██╗██╔══██╗██╔════╝   ██╔══██╗██║██║     ██╔═══██╗╚══██╔══╝║
║   ██║     ██║   ██║██║  ██║█████╗     ██████╔╝██║██║     ██║   ██║   ██║   ║
║   ██║     ██║   ██║██║  ██║██╔══╝     ██╔═══╝ ██║██║     ██║   ██║   ██║   ║
║   ╚██████╗╚██████╔╝██████╔╝███████╗   ██║     ██║███████╗╚██████╔╝   ██║   ║
║    ╚═════╝ ╚═════╝ ╚═════╝ ╚══════╝   ╚═╝     ╚═╝╚══════╝ ╚═════╝    ╚═╝   ║
║                                                                           ║
║                        LONG-FORM CODE REVIEW ASSISTANT                    ║
║                                                                           ║
╚═══════════════════════════════════════════════════════════════════════════╝
`

// reviewContext is the code and feedback /explain works on: the last finished
// review or the last record opened with /show.
type reviewContext struct {
	code     string
	feedback string
	language string
}

type model struct {
	styles     styles
	configPath string
	services   *app.Services
	cleanup    func()

	// UI Components
	viewport  viewport.Model
	textarea  textarea.Model
	spinner   spinner.Model
	progress  progress.Model
	renderer  *glamour.TermRenderer
	isLoading bool

	// Session State
	history    []string
	language   string
	strictness core.Strictness
	last       *reviewContext

	// In-flight review
	run        int
	reviewing  bool
	cancel     context.CancelFunc
	source     string
	reviewLang string
	phase      string
	chunkIdx   int
	chunkCount int
	received   bool
	feedback   string
	writer     typewriter
	typing     bool
}

func initialModel(theme ThemeName, configPath string) *model {
	styles := GetTheme(theme)
	ta := textarea.New()
	ta.Placeholder = "Enter a command, e.g. /review main.go strict"
	ta.Focus()
	ta.Prompt = styles.prompt.Render("► ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = styles.success
	pr := progress.New(progress.WithDefaultGradient())

	return &model{
		styles:     styles,
		configPath: configPath,
		textarea:   ta,
		spinner:    sp,
		progress:   pr,
		isLoading:  true,
		strictness: core.StrictnessModerate,
		history:    []string{styles.ascii.Render(asciiLogo), "", "⚙ STARTING REVIEW ENGINE..."},
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(initializeServicesCmd(m.configPath), m.spinner.Tick)
}

// shutdown stops a running review and releases the services.
func (m *model) shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.cleanup != nil {
		m.cleanup()
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	m.spinner, spCmd = m.spinner.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			if m.reviewing {
				m.cancelReview()
				return m, nil
			}
			return m, tea.Quit
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			m.textarea.Reset()
			return m, m.processCommand(input)
		}

	case appInitializedMsg:
		m.isLoading = false
		if msg.err != nil {
			m.appendLines("", m.styles.error.Render(msg.err.Error()))
			return m, nil
		}
		m.services = msg.services
		m.cleanup = msg.cleanup
		m.appendLines("", m.styles.success.Render("✓ SYSTEM ONLINE"),
			"", "Type /help for commands or /review <file> to start.")
		return m, nil

	case reviewStartedMsg:
		if msg.run != m.run || !m.reviewing {
			return m, nil
		}
		m.isLoading = false
		m.source = msg.source
		m.reviewLang = msg.lang
		m.refresh()
		return m, waitForEvent(msg.run, msg.events)

	case reviewEventMsg:
		if msg.run != m.run || !m.reviewing {
			return m, nil
		}
		return m, m.handleEvent(msg)

	case reviewClosedMsg:
		if msg.run == m.run && m.reviewing {
			// The stream ended without a terminal event.
			m.endReview()
			m.appendLines("", m.styles.warning.Render("✗ Review stopped"))
		}
		return m, nil

	case typeTickMsg:
		if m.reviewing && m.writer.Advance() {
			m.refresh()
			return m, typeTick()
		}
		m.typing = false
		return m, nil

	case recordsLoadedMsg:
		m.isLoading = false
		if msg.err != nil {
			m.appendLines("", m.styles.error.Render("⚠ "+msg.err.Error()))
			return m, nil
		}
		m.appendLines("", m.formatRecords(msg.title, msg.records))
		return m, nil

	case recordLoadedMsg:
		m.isLoading = false
		if msg.err != nil {
			m.appendLines("", m.styles.error.Render("⚠ "+msg.err.Error()))
			return m, nil
		}
		m.showRecord(msg.record)
		return m, nil

	case explanationMsg:
		m.isLoading = false
		m.appendLines("", m.styles.section.Render("EXPLANATION"), m.renderMarkdown(msg.content))
		return m, nil

	case infoMsg:
		m.isLoading = false
		m.appendLines("", m.styles.success.Render(msg.text))
		return m, nil

	case reviewFailedMsg:
		if msg.run != m.run || !m.reviewing {
			return m, nil
		}
		m.endReview()
		m.appendLines("", m.styles.error.Render("⚠ "+msg.err.Error()))
		return m, nil

	case errorMsg:
		m.isLoading = false
		m.appendLines("", m.styles.error.Render("⚠ "+msg.err.Error()))
		return m, nil

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 10
		m.textarea.SetWidth(msg.Width - 10)
		m.progress.Width = max(10, msg.Width-10)
		if r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(max(20, msg.Width-8)),
		); err == nil {
			m.renderer = r
		}
		m.refresh()
	}

	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

// handleEvent applies one review event to the live view and keeps the stream flowing.
func (m *model) handleEvent(msg reviewEventMsg) tea.Cmd {
	ev := msg.event
	if ev.ChunkCount > 0 {
		m.chunkCount = ev.ChunkCount
	}
	m.chunkIdx = ev.ChunkIndex

	var cmds []tea.Cmd
	switch ev.Kind {
	case core.EventLoadingFirst:
		m.received = false
		m.phase = fmt.Sprintf("Requesting chunk %d of %d", ev.ChunkIndex+1, m.chunkCount)
	case core.EventLoadingContinuation:
		m.received = false
		m.phase = fmt.Sprintf("Continuing chunk %d of %d", ev.ChunkIndex+1, m.chunkCount)
	case core.EventPartial:
		m.received = true
		m.phase = fmt.Sprintf("Received chunk %d of %d", ev.ChunkIndex+1, m.chunkCount)
		if ev.Feedback != "" {
			m.feedback = ev.Feedback
		}
		m.writer.SetTarget(ev.Code)
		if !m.typing {
			m.typing = true
			cmds = append(cmds, typeTick())
		}
	case core.EventSaved:
		if ev.Record != nil {
			m.appendLines(m.styles.success.Render(fmt.Sprintf("✓ Saved to library as #%d (%s)", ev.Record.ID, ev.Record.Title)))
		}
	case core.EventDone:
		if ev.Feedback != "" {
			m.feedback = ev.Feedback
		}
		if ev.Code != "" {
			m.writer.SetTarget(ev.Code)
		}
		m.writer.Finish()
		code, feedback, lang := m.writer.Text(), m.feedback, m.reviewLang
		m.endReview()
		m.last = &reviewContext{code: code, feedback: feedback, language: lang}
		m.appendResult(feedback, code)
		m.appendLines("", m.styles.success.Render("✓ REVIEW COMPLETE"),
			m.styles.inactive.Render("Use /explain to ask for a walkthrough of the feedback."))
		return nil
	case core.EventError:
		m.writer.Finish()
		partial := m.writer.Text()
		m.endReview()
		m.appendLines("", m.styles.error.Render("⚠ "+core.UserMessage(ev.Err)))
		if partial != "" {
			m.appendLines(m.styles.inactive.Render("Partial result before the failure:"), m.styles.code.Render(partial))
		}
		return nil
	}

	m.refresh()
	return tea.Batch(append(cmds, waitForEvent(msg.run, msg.events))...)
}

func (m *model) View() string {
	if m.services == nil && m.isLoading {
		return fmt.Sprintf("\n  %s BOOTING SYSTEM...\n\n", m.spinner.View())
	}

	var loadingIndicator string
	if m.isLoading || m.reviewing {
		loadingIndicator = " " + m.spinner.View() + " " + m.styles.success.Render("PROCESSING...")
	}

	return m.styles.app.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.styles.viewport.Render(m.viewport.View()),
			"",
			m.styles.footer.Render(
				lipgloss.JoinHorizontal(lipgloss.Left,
					m.textarea.View(),
					loadingIndicator,
				),
			),
			m.statusLine(),
		),
	)
}

func (m *model) statusLine() string {
	var statusParts []string
	lang := m.language
	if lang == "" {
		lang = "auto"
	}
	statusParts = append(statusParts,
		fmt.Sprintf("LANG: %s", lang),
		fmt.Sprintf("STRICTNESS: %s", m.strictness),
	)

	if m.reviewing {
		statusParts = append(statusParts, m.styles.success.Render("● REVIEWING"))
	} else {
		statusParts = append(statusParts, m.styles.inactive.Render("○ IDLE"))
	}

	if m.services != nil && m.services.Config != nil {
		ai := m.services.Config.AI
		statusParts = append(statusParts,
			fmt.Sprintf("🤖 %s (%s)", ai.GeneratorModel, ai.LLMProvider),
			fmt.Sprintf("📚 %s", m.services.Config.Storage.Driver),
		)
	}
	return m.styles.inactive.Render(strings.Join(statusParts, " │ "))
}

// liveView renders the review that is still streaming.
func (m *model) liveView() string {
	parts := []string{m.styles.command.Render(fmt.Sprintf("→ REVIEWING %s [%s, %s]", m.source, m.reviewLang, m.strictness))}
	if m.phase != "" {
		parts = append(parts, m.styles.inactive.Render(m.phase))
	}
	if m.chunkCount > 0 {
		parts = append(parts, m.progress.ViewAs(m.progressPercent()))
	}
	if text := m.writer.Text(); text != "" {
		parts = append(parts, m.styles.code.Render(text))
	}
	return strings.Join(parts, "\n")
}

func (m *model) progressPercent() float64 {
	if m.chunkCount == 0 {
		return 0
	}
	done := m.chunkIdx
	if m.received {
		done++
	}
	return min(1, float64(done)/float64(m.chunkCount))
}

func (m *model) refresh() {
	content := strings.Join(m.history, "\n")
	if m.reviewing {
		content += "\n\n" + m.liveView()
	}
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

func (m *model) appendLines(lines ...string) {
	m.history = append(m.history, lines...)
	m.refresh()
}

func (m *model) appendResult(feedback, code string) {
	if strings.TrimSpace(feedback) != "" {
		m.history = append(m.history, "", m.styles.section.Render("FEEDBACK"), m.renderMarkdown(feedback))
	}
	if code != "" {
		m.history = append(m.history, "", m.styles.section.Render("IMPROVED CODE"), m.styles.code.Render(code))
	}
	m.refresh()
}

func (m *model) renderMarkdown(md string) string {
	if m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func (m *model) showRecord(rec *core.ReviewRecord) {
	header := fmt.Sprintf("#%d %s  %s · %s · %s", rec.ID, rec.Title, rec.Language, rec.Strictness, formatTimestamp(rec.Timestamp))
	m.history = append(m.history, "", m.styles.prompt.Render(header))

	var feedback, code string
	if rec.Feedback != nil {
		feedback = *rec.Feedback
	}
	if rec.CorrectedCode != nil {
		code = *rec.CorrectedCode
	}
	m.last = &reviewContext{code: rec.Code, feedback: feedback, language: rec.Language}
	m.appendResult(feedback, code)
}

func (m *model) formatRecords(title string, records []core.ReviewRecord) string {
	if len(records) == 0 {
		return m.styles.inactive.Render("No reviews found.")
	}
	var b strings.Builder
	b.WriteString(m.styles.success.Render(title + ":"))
	for _, rec := range records {
		fmt.Fprintf(&b, "\n  %s %s %s", m.styles.prompt.Render(fmt.Sprintf("#%d", rec.ID)), rec.Title,
			m.styles.inactive.Render(fmt.Sprintf("(%s, %s)", rec.Language, formatTimestamp(rec.Timestamp))))
	}
	b.WriteString("\n\n" + m.styles.inactive.Render("Use '/show [id]' to open a review."))
	return b.String()
}

func (m *model) startReview(path string, strictness core.Strictness) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.run++
	m.reviewing = true
	m.cancel = cancel
	m.isLoading = true
	m.source = path
	m.reviewLang = m.language
	m.phase = "Preparing"
	m.chunkIdx, m.chunkCount = 0, 0
	m.received = false
	m.feedback = ""
	m.strictness = strictness
	m.writer.Reset()
	m.appendLines("", m.styles.command.Render(fmt.Sprintf("→ Starting %s review of %s...", strictness, path)))
	return tea.Batch(m.spinner.Tick, startReviewCmd(ctx, m.run, m.services, path, m.language, strictness))
}

func (m *model) cancelReview() {
	m.endReview()
	m.appendLines("", m.styles.warning.Render("✗ Review cancelled"))
}

// endReview releases the running review; events that are still in flight are
// dropped because their run no longer matches.
func (m *model) endReview() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.reviewing = false
	m.isLoading = false
	m.typing = false
	m.run++
}

func (m *model) processCommand(input string) tea.Cmd {
	m.appendLines(m.styles.prompt.Render("► ") + input)

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}
	command := parts[0]
	args := parts[1:]

	needsServices := map[string]bool{
		"/review": true, "/library": true, "/ls": true, "/show": true, "/search": true,
		"/rename": true, "/delete": true, "/explain": true,
	}
	if needsServices[command] && m.services == nil {
		m.appendLines(m.styles.error.Render("Services are not ready yet."))
		return nil
	}

	switch command {
	case "/review", "/r":
		if len(args) < 1 || len(args) > 2 {
			m.appendLines(m.styles.error.Render("USAGE: /review [file] [lenient|moderate|strict]"))
			return nil
		}
		if m.reviewing {
			m.appendLines(m.styles.error.Render("A review is already running. Use /cancel first."))
			return nil
		}
		strictness := m.strictness
		if len(args) == 2 {
			s, err := core.ParseStrictness(args[1])
			if err != nil {
				m.appendLines(m.styles.error.Render(err.Error()))
				return nil
			}
			strictness = s
		}
		return m.startReview(args[0], strictness)

	case "/cancel":
		if !m.reviewing {
			m.appendLines(m.styles.inactive.Render("No review is running."))
			return nil
		}
		m.cancelReview()
		return nil

	case "/lang":
		if len(args) != 1 {
			m.appendLines(m.styles.error.Render("USAGE: /lang [language|auto]"))
			return nil
		}
		lang := strings.ToLower(args[0])
		if lang == "auto" {
			m.language = ""
			m.appendLines(m.styles.success.Render("✓ Language will be detected from each file"))
			return nil
		}
		if !llm.IsSupportedLanguage(lang) {
			m.appendLines(m.styles.error.Render(fmt.Sprintf("Unsupported language '%s'. Supported: %s", lang, strings.Join(llm.LanguageValues(), ", "))))
			return nil
		}
		m.language = lang
		m.appendLines(m.styles.success.Render("✓ Language set to " + lang))
		return nil

	case "/strictness":
		if len(args) != 1 {
			m.appendLines(m.styles.error.Render("USAGE: /strictness [lenient|moderate|strict]"))
			return nil
		}
		s, err := core.ParseStrictness(args[0])
		if err != nil {
			m.appendLines(m.styles.error.Render(err.Error()))
			return nil
		}
		m.strictness = s
		m.appendLines(m.styles.success.Render(fmt.Sprintf("✓ Strictness set to %s", s)))
		return nil

	case "/library", "/ls":
		m.isLoading = true
		return tea.Batch(m.spinner.Tick, listRecordsCmd(m.services))

	case "/search":
		if len(args) == 0 {
			m.appendLines(m.styles.error.Render("USAGE: /search [query]"))
			return nil
		}
		m.isLoading = true
		return tea.Batch(m.spinner.Tick, searchRecordsCmd(m.services, strings.Join(args, " ")))

	case "/show":
		id, ok := m.parseID(args, 1, "USAGE: /show [id]")
		if !ok {
			return nil
		}
		m.isLoading = true
		return tea.Batch(m.spinner.Tick, showRecordCmd(m.services, id))

	case "/rename":
		if len(args) < 2 {
			m.appendLines(m.styles.error.Render("USAGE: /rename [id] [title]"))
			return nil
		}
		id, ok := m.parseID(args[:1], 1, "USAGE: /rename [id] [title]")
		if !ok {
			return nil
		}
		return renameRecordCmd(m.services, id, strings.Join(args[1:], " "))

	case "/delete":
		id, ok := m.parseID(args, 1, "USAGE: /delete [id]")
		if !ok {
			return nil
		}
		return deleteRecordCmd(m.services, id)

	case "/explain":
		if m.last == nil {
			m.appendLines(m.styles.error.Render("Nothing to explain yet. Finish a review or open one with /show."))
			return nil
		}
		if strings.TrimSpace(m.last.feedback) == "" {
			m.appendLines(m.styles.inactive.Render("That review has no feedback to explain."))
			return nil
		}
		m.isLoading = true
		m.appendLines("", m.styles.command.Render("→ EXPLAINING FEEDBACK..."))
		return tea.Batch(m.spinner.Tick, explainCmd(m.services, m.last.code, m.last.feedback, m.last.language))

	case "/help", "/h":
		helpText := m.styles.success.Render("AVAILABLE COMMANDS:") + `

  /review [file] [level]   Review a file chunk by chunk (level: lenient, moderate, strict).
  /cancel                  Stop the running review (or press Esc).
  /lang [name|auto]        Set the language of the next review.
  /strictness [level]      Set the default strictness.
  /library, /ls            List saved reviews.
  /show [id]               Open a saved review.
  /search [query]          Find saved reviews.
  /rename [id] [title]     Rename a saved review.
  /delete [id]             Delete a saved review.
  /explain                 Explain the feedback of the last review.
  /help                    Show this help message.
  /exit, /quit             Exit.`
		m.appendLines("", helpText)
		return nil

	case "/exit", "/quit":
		return tea.Quit

	default:
		m.appendLines("", m.styles.error.Render(fmt.Sprintf("UNKNOWN COMMAND: %s", command)), m.styles.inactive.Render("Type /help for assistance."))
		return nil
	}
}

func (m *model) parseID(args []string, want int, usage string) (int64, bool) {
	if len(args) != want {
		m.appendLines(m.styles.error.Render(usage))
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		m.appendLines(m.styles.error.Render(fmt.Sprintf("Invalid review id '%s'", args[0])))
		return 0, false
	}
	return id, true
}
