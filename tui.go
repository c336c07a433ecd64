package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUI message types
type RecordingStartMsg struct{}
type RecordingStopMsg struct{}
type AudioLevelMsg struct{ Level float64 }
type TranscriptionMsg struct {
	Text     string
	NoSpeech bool
}
type ModeLineMsg struct{ Text string }   // model/language info
type DeviceLineMsg struct{ Text string } // microphone device name
type LogMsg struct{ Text string }
type tickMsg time.Time

type tuiState int

const (
	tuiStateIdle tuiState = iota
	tuiStateRecording
	tuiStateWorking // transcribing or injecting
)

type tuiModel struct {
	state         tuiState
	recordStart   time.Time
	audioLevel    float64
	peakLevel     float64
	msgCount      int
	width, height int
	modeLine      string
	deviceLine    string
	lastText      string
	lastLog       string
	noSpeech      bool
}

var (
	tuiProgram   *tea.Program
	tuiMu        sync.Mutex
	tuiReady     = make(chan struct{})
	tuiReadyOnce sync.Once
)

var (
	recStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	workStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	idleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	textStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	meterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	meterPeak  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
)

func NewTUIProgram() *tea.Program {
	return tea.NewProgram(tuiModel{}, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	tuiReadyOnce.Do(func() { close(tuiReady) })
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

	case tickMsg:
		return m, tuiTick()

	case RecordingStartMsg:
		m.state = tuiStateRecording
		m.recordStart = time.Now()
		m.audioLevel = 0
		m.peakLevel = 0

	case RecordingStopMsg:
		m.state = tuiStateWorking
		m.audioLevel = 0

	case AudioLevelMsg:
		if m.state == tuiStateRecording {
			m.audioLevel = m.audioLevel*0.6 + msg.Level*0.4
			if msg.Level > m.peakLevel {
				m.peakLevel = msg.Level
			}
		}

	case TranscriptionMsg:
		m.state = tuiStateIdle
		m.noSpeech = msg.NoSpeech
		if !msg.NoSpeech {
			m.msgCount++
			m.lastText = msg.Text
		}
		m.lastLog = ""

	case ModeLineMsg:
		m.modeLine = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text

	case LogMsg:
		m.state = tuiStateIdle
		m.lastLog = msg.Text
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var lines []string
	lines = append(lines, titleStyle.Render("murmur"), "")

	switch m.state {
	case tuiStateRecording:
		dur := time.Since(m.recordStart).Seconds()
		lines = append(lines, recStyle.Render(fmt.Sprintf("● REC %.1fs", dur)))
		lines = append(lines, renderMeter(m.audioLevel, m.peakLevel, 30))
		if dur > 1.0 && m.peakLevel < 0.02 {
			lines = append(lines, errStyle.Render("  no voice detected"))
		}
	case tuiStateWorking:
		lines = append(lines, workStyle.Render("◐ TRANSCRIBING"))
	default:
		lines = append(lines, idleStyle.Render("○ STANDBY"))
	}

	lines = append(lines, "")
	if m.modeLine != "" {
		lines = append(lines, infoStyle.Render(m.modeLine))
	}
	if m.deviceLine != "" {
		lines = append(lines, dimStyle.Render(m.deviceLine))
	}

	if m.lastLog != "" {
		lines = append(lines, "", errStyle.Render(m.lastLog))
	} else if m.noSpeech {
		lines = append(lines, "", dimStyle.Render("(no speech detected)"))
	} else if m.lastText != "" {
		lines = append(lines, "")
		for _, l := range wrapText(m.lastText, min(m.width-4, 76)) {
			lines = append(lines, textStyle.Render(l))
		}
	}

	if m.msgCount > 0 {
		lines = append(lines, "", dimStyle.Render(fmt.Sprintf("%d dictation(s) this session", m.msgCount)))
	}
	lines = append(lines, "", dimStyle.Render("q to quit"))

	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}

func renderMeter(level, peak float64, width int) string {
	filled := int(level * float64(width))
	if filled > width {
		filled = width
	}
	peakPos := int(peak * float64(width))
	if peakPos >= width {
		peakPos = width - 1
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i < filled:
			b.WriteString(meterStyle.Render("█"))
		case i == peakPos && peak > 0:
			b.WriteString(meterPeak.Render("▌"))
		default:
			b.WriteString(dimStyle.Render("·"))
		}
	}
	return b.String()
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func logToTUI(format string, args ...interface{}) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(LogMsg{Text: fmt.Sprintf(format, args...)})
	}
}
