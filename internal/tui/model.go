package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yegors/livescribe/internal/session"
	"github.com/yegors/livescribe/internal/translation"
)

// statusTimeout is how long non-error status messages stay visible
const statusTimeout = 5 * time.Second

// Controller is the part of the session controller the TUI drives.
type Controller interface {
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) error
	TogglePause(ctx context.Context) error
	ClearTranscript(ctx context.Context, confirm func() bool) (bool, error)
	ExportTranscript(ctx context.Context, format string) (session.Export, error)
	ToggleTranslation(ctx context.Context, code string) error
	SetTargetLanguage(ctx context.Context, code string) error
}

// Options configures a Model.
type Options struct {
	Language              string // Recognition locale shown in the header
	DefaultTargetLanguage string // Initially selected translation target
	ExportDir             string // Where exports are written ("" = working directory)
}

type entryView struct {
	id          int64
	text        string
	timestamp   time.Time
	translation string
	failed      bool
}

// Model is the root bubbletea model for the terminal client.
type Model struct {
	ctx       context.Context
	ctrl      Controller
	exportDir string
	language  string

	// Translation target picker
	languages   []string
	targetIndex int

	// Session state
	recording       bool
	paused          bool
	duration        time.Duration
	level           float64
	wordCount       int
	translatedWords int
	translationOn   bool
	targetLanguage  string

	// Transcript
	entries            []entryView
	interim            string
	interimTranslation string

	// Status line
	status       string
	statusLevel  session.StatusLevel
	statusSeq    int
	confirmClear bool

	// Layout
	width  int
	height int
	scroll int
}

// New creates a Model that drives ctrl.
func New(ctx context.Context, ctrl Controller, opts Options) Model {
	codes := translation.LanguageCodes()
	index := 0
	for i, code := range codes {
		if code == opts.DefaultTargetLanguage {
			index = i
			break
		}
	}

	return Model{
		ctx:         ctx,
		ctrl:        ctrl,
		exportDir:   opts.ExportDir,
		language:    opts.Language,
		languages:   codes,
		targetIndex: index,
		status:      "Press r to start recording",
		statusLevel: session.StatusInfo,
		width:       80,
		height:      24,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case StateMsg:
		m.recording = msg.State.IsRecording
		m.paused = msg.State.IsPaused
		m.wordCount = msg.State.WordCount
		m.translatedWords = msg.State.TranslatedWordCount
		if !m.recording {
			m.level = 0
		}
		return m, nil

	case TranslationMsg:
		m.translationOn = msg.State.Enabled
		m.targetLanguage = msg.State.TargetLanguage
		if !m.translationOn {
			m.interimTranslation = ""
		}
		return m, nil

	case EntryAddedMsg:
		m.entries = append(m.entries, entryView{
			id:        msg.Entry.ID,
			text:      msg.Entry.Text,
			timestamp: msg.Entry.Timestamp,
		})
		m.scroll = 0
		return m, nil

	case EntryTranslatedMsg:
		if i := m.indexOf(msg.ID); i >= 0 {
			m.entries[i].translation = msg.Translation
			m.entries[i].failed = false
		}
		return m, nil

	case TranslationFailedMsg:
		if i := m.indexOf(msg.ID); i >= 0 {
			m.entries[i].failed = true
		}
		return m, nil

	case InterimMsg:
		m.interim = msg.Text
		return m, nil

	case InterimTranslationMsg:
		m.interimTranslation = msg.Text
		return m, nil

	case DurationMsg:
		m.duration = msg.Elapsed
		return m, nil

	case AudioLevelMsg:
		m.level = msg.Level
		return m, nil

	case StatusMsg:
		return m, m.setStatus(msg.Message, msg.Level)

	case ClearedMsg:
		m.entries = nil
		m.interim = ""
		m.interimTranslation = ""
		m.scroll = 0
		return m, nil

	case ExportedMsg:
		if msg.Err != nil {
			return m, m.setStatus(fmt.Sprintf("Failed to save export: %v", msg.Err), session.StatusError)
		}
		return m, m.setStatus("Saved "+msg.Path, session.StatusSuccess)

	case ActionErrorMsg:
		if reported(msg.Err) {
			return m, nil
		}
		return m, m.setStatus(msg.Err.Error(), session.StatusError)

	case ClearStatusMsg:
		if msg.Seq == m.statusSeq && !m.confirmClear {
			m.status = ""
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.confirmClear {
		switch key {
		case KeyConfirmYes:
			m.confirmClear = false
			return m, m.clearCmd()
		case KeyConfirmNo, KeyEscape:
			m.confirmClear = false
			return m, m.setStatus("Clear cancelled", session.StatusInfo)
		case KeyCtrlC:
			return m, tea.Quit
		}
		return m, nil
	}

	switch key {
	case KeyQuit, KeyCtrlC:
		return m, tea.Quit

	case KeyRecord:
		if m.recording {
			return m, m.run(m.ctrl.StopRecording)
		}
		return m, m.run(m.ctrl.StartRecording)

	case KeyPause, KeyPauseAlt:
		if !m.recording {
			return m, nil
		}
		return m, m.run(m.ctrl.TogglePause)

	case KeyTranslate:
		target := m.selectedTarget()
		return m, m.run(func(ctx context.Context) error {
			return m.ctrl.ToggleTranslation(ctx, target)
		})

	case KeyNextLanguage, KeyPrevLanguage:
		if len(m.languages) == 0 {
			return m, nil
		}
		step := 1
		if key == KeyPrevLanguage {
			step = len(m.languages) - 1
		}
		m.targetIndex = (m.targetIndex + step) % len(m.languages)
		target := m.selectedTarget()
		if !m.translationOn {
			return m, m.setStatus("Target language: "+translation.LanguageDisplayName(target), session.StatusInfo)
		}
		return m, m.run(func(ctx context.Context) error {
			return m.ctrl.SetTargetLanguage(ctx, target)
		})

	case KeyClear:
		m.confirmClear = true
		m.status = "Clear transcript and translations? (y/n)"
		m.statusLevel = session.StatusWarning
		return m, nil

	case KeyExportText:
		return m, m.exportCmd(session.FormatText)

	case KeyExportJSON:
		return m, m.exportCmd(session.FormatJSON)

	case KeyScrollUp, KeyScrollUpAlt:
		m.scroll++
		return m, nil

	case KeyScrollDown, KeyScrollDownAlt:
		if m.scroll > 0 {
			m.scroll--
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) setStatus(message string, level session.StatusLevel) tea.Cmd {
	m.status = message
	m.statusLevel = level
	m.statusSeq++
	if level == session.StatusError {
		return nil
	}
	seq := m.statusSeq
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}

func (m Model) selectedTarget() string {
	if len(m.languages) == 0 {
		return ""
	}
	return m.languages[m.targetIndex]
}

func (m Model) indexOf(id int64) int {
	for i := range m.entries {
		if m.entries[i].id == id {
			return i
		}
	}
	return -1
}

// run calls fn off the update loop; controller calls wait on the session loop
func (m Model) run(fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := fn(ctx); err != nil {
			return ActionErrorMsg{Err: err}
		}
		return nil
	}
}

func (m Model) clearCmd() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		if _, err := ctrl.ClearTranscript(ctx, func() bool { return true }); err != nil {
			return ActionErrorMsg{Err: err}
		}
		return nil
	}
}

func (m Model) exportCmd(format string) tea.Cmd {
	ctx, ctrl, dir := m.ctx, m.ctrl, m.exportDir
	return func() tea.Msg {
		export, err := ctrl.ExportTranscript(ctx, format)
		if err != nil {
			return ActionErrorMsg{Err: err}
		}
		path := filepath.Join(dir, export.Filename)
		if err := os.WriteFile(path, []byte(export.Content), 0o644); err != nil {
			return ExportedMsg{Err: err}
		}
		return ExportedMsg{Path: path}
	}
}

// reported reports whether the controller already turned err into a status message
func reported(err error) bool {
	var merr *session.MicrophoneAccessError
	var rerr *session.RecognitionEngineError
	return errors.Is(err, session.ErrEmptyTranscript) ||
		errors.As(err, &merr) ||
		errors.As(err, &rerr) ||
		errors.Is(err, context.Canceled)
}

// View renders the model.
func (m Model) View() string {
	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, dividerStyle.Render(strings.Repeat("─", max(m.width, 1))))
	sections = append(sections, m.renderTranscript(m.transcriptHeight()))
	sections = append(sections, dividerStyle.Render(strings.Repeat("─", max(m.width, 1))))
	sections = append(sections, m.renderStatusLine())
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) transcriptHeight() int {
	// header, status bar, two dividers, status line, footer
	return max(m.height-6, 3)
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("LIVESCRIBE")
	info := dimStyle.Render(" " + m.language)

	var tr string
	if m.translationOn {
		tr = translationStyle.Render(" → " + translation.LanguageDisplayName(m.targetLanguage))
	} else {
		tr = dimStyle.Render(fmt.Sprintf(" (translation off, target %s)", translation.LanguageDisplayName(m.selectedTarget())))
	}
	return title + info + tr
}

func (m Model) renderStatusBar() string {
	var state string
	switch {
	case m.recording && m.paused:
		state = pausedStyle.Render("❚❚ PAUSED")
	case m.recording:
		state = recordingStyle.Render("● REC")
	default:
		state = idleStyle.Render("○ IDLE")
	}

	parts := []string{
		state,
		session.FormatDuration(m.duration),
		renderLevelMeter(m.level),
		fmt.Sprintf("%d words", m.wordCount),
	}
	if m.translationOn || m.translatedWords > 0 {
		parts = append(parts, fmt.Sprintf("%d translated", m.translatedWords))
	}
	return strings.Join(parts, "  ")
}

func renderLevelMeter(level float64) string {
	const barLen = 10
	filled := int(level / 100 * barLen)
	if filled > barLen {
		filled = barLen
	}

	var bar strings.Builder
	for i := 0; i < barLen; i++ {
		switch {
		case i >= filled:
			bar.WriteString(levelOffStyle.Render("░"))
		case i >= barLen*7/10:
			bar.WriteString(levelHighStyle.Render("█"))
		default:
			bar.WriteString(levelOnStyle.Render("█"))
		}
	}
	return "MIC " + bar.String()
}

func (m Model) renderTranscript(height int) string {
	width := max(m.width-2, 20)
	wrap := lipgloss.NewStyle().Width(width)

	var lines []string
	if len(m.entries) == 0 && m.interim == "" {
		lines = append(lines, dimStyle.Render("  Transcript appears here as you speak"))
	}
	for _, e := range m.entries {
		stamp := dimStyle.Render("[" + e.timestamp.Format("15:04:05") + "] ")
		lines = append(lines, strings.Split(wrap.Render(stamp+textStyle.Render(e.text)), "\n")...)
		switch {
		case e.translation != "":
			lines = append(lines, strings.Split(wrap.Render("    "+translationStyle.Render(e.translation)), "\n")...)
		case e.failed:
			lines = append(lines, "    "+statusStyles["error"].Render("translation failed"))
		}
	}
	if m.interim != "" {
		lines = append(lines, strings.Split(wrap.Render(interimStyle.Render(m.interim+" …")), "\n")...)
		if m.interimTranslation != "" {
			lines = append(lines, strings.Split(wrap.Render("    "+translationStyle.Render(m.interimTranslation)), "\n")...)
		}
	}

	// Keep the newest lines visible unless scrolled back
	end := len(lines) - min(m.scroll, max(len(lines)-height, 0))
	start := max(end-height, 0)
	visible := lines[start:end]
	for len(visible) < height {
		visible = append(visible, "")
	}
	return strings.Join(visible, "\n")
}

func (m Model) renderStatusLine() string {
	if m.status == "" {
		return ""
	}
	style, ok := statusStyles[string(m.statusLevel)]
	if !ok {
		style = dimStyle
	}
	return style.Render(m.status)
}

func (m Model) renderFooter() string {
	keys := []struct{ key, desc string }{
		{"r", "record/stop"},
		{"space", "pause"},
		{"t", "translate"},
		{"l/L", "language"},
		{"c", "clear"},
		{"e/E", "export txt/json"},
		{"q", "quit"},
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, footerKeyStyle.Render(k.key)+" "+dimStyle.Render(k.desc))
	}
	return strings.Join(parts, "  ")
}
