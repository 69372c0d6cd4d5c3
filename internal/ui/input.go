package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrInterrupted is returned when the user presses Ctrl+C at the prompt.
var ErrInterrupted = errors.New("interrupted")

// Line is one submitted input line.
type Line struct {
	Text  string
	Voice bool // the line is a voice transcript
}

// LineReader reads one line of user input.
type LineReader interface {
	ReadLine(prompt string) (Line, error)
}

// voiceMsg delivers a transcript into a running prompt.
type voiceMsg string

// InputModel is a single-line prompt with history navigation and
// completion of REPL builtins.
type InputModel struct {
	input        textinput.Model
	history      []string
	historyIndex int // -1 while editing new input
	savedInput   string
	completions  []string

	submitted bool
	voice     bool
	err       error
}

// NewInputModel creates an input model. history is oldest first.
func NewInputModel(prompt string, styles *Styles, history, completions []string) InputModel {
	ti := textinput.New()
	ti.Prompt = styles.Prompt.Render(prompt)
	ti.Placeholder = "type a command or ask a question"
	ti.PlaceholderStyle = styles.Muted
	ti.CharLimit = 4096
	ti.Focus()

	return InputModel{
		input:        ti,
		history:      history,
		historyIndex: -1,
		completions:  completions,
	}
}

// Init starts the cursor blink.
func (m InputModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key events.
func (m InputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if t, ok := msg.(voiceMsg); ok {
		m.input.SetValue(string(t))
		m.submitted = true
		m.voice = true
		return m, tea.Quit
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch key.Type {
	case tea.KeyEnter:
		m.submitted = true
		return m, tea.Quit
	case tea.KeyCtrlC:
		m.err = ErrInterrupted
		return m, tea.Quit
	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.err = io.EOF
			return m, tea.Quit
		}
	case tea.KeyUp:
		m.older()
		return m, nil
	case tea.KeyDown:
		m.newer()
		return m, nil
	case tea.KeyTab:
		if c := m.complete(m.input.Value()); c != "" {
			m.input.SetValue(c)
			m.input.CursorEnd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the prompt line.
func (m InputModel) View() string {
	if m.submitted || m.err != nil {
		return ""
	}
	return m.input.View()
}

// Value returns the current text.
func (m InputModel) Value() string {
	return m.input.Value()
}

func (m *InputModel) older() {
	if len(m.history) == 0 {
		return
	}
	if m.historyIndex == -1 {
		m.savedInput = m.input.Value()
		m.historyIndex = len(m.history) - 1
	} else if m.historyIndex > 0 {
		m.historyIndex--
	}
	m.input.SetValue(m.history[m.historyIndex])
	m.input.CursorEnd()
}

func (m *InputModel) newer() {
	if m.historyIndex < 0 {
		return
	}
	if m.historyIndex < len(m.history)-1 {
		m.historyIndex++
		m.input.SetValue(m.history[m.historyIndex])
	} else {
		m.historyIndex = -1
		m.input.SetValue(m.savedInput)
	}
	m.input.CursorEnd()
}

// complete returns the only completion starting with prefix.
func (m *InputModel) complete(prefix string) string {
	if prefix == "" {
		return ""
	}
	match := ""
	for _, c := range m.completions {
		if strings.HasPrefix(c, prefix) && c != prefix {
			if match != "" {
				return ""
			}
			match = c
		}
	}
	return match
}

// TeaReader reads lines with a bubbletea program per prompt.
type TeaReader struct {
	styles      *Styles
	history     func() []string
	completions []string
	voice       <-chan string
	opts        []tea.ProgramOption
}

// NewTeaReader creates a reader. history is called before each prompt.
func NewTeaReader(styles *Styles, history func() []string, completions []string, opts ...tea.ProgramOption) *TeaReader {
	return &TeaReader{styles: styles, history: history, completions: completions, opts: opts}
}

// SetVoice makes transcripts from ch submit the open prompt.
func (r *TeaReader) SetVoice(ch <-chan string) {
	r.voice = ch
}

// ReadLine shows the prompt and blocks until Enter, Ctrl+C, Ctrl+D or a
// voice transcript.
func (r *TeaReader) ReadLine(prompt string) (Line, error) {
	var hist []string
	if r.history != nil {
		hist = r.history()
	}
	p := tea.NewProgram(NewInputModel(prompt, r.styles, hist, r.completions), r.opts...)

	stop := make(chan struct{})
	if r.voice != nil {
		go func() {
			select {
			case t := <-r.voice:
				p.Send(voiceMsg(t))
			case <-stop:
			}
		}()
	}
	final, err := p.Run()
	close(stop)
	if err != nil {
		return Line{}, fmt.Errorf("input: %w", err)
	}

	m := final.(InputModel)
	if m.err != nil {
		return Line{}, m.err
	}
	// The program clears the line on exit; echo what was submitted.
	fmt.Println(r.styles.Prompt.Render(prompt) + m.Value())
	return Line{Text: m.Value(), Voice: m.voice}, nil
}

// PlainReader reads lines from a non-interactive input such as a pipe.
// Lines are read in the background so a voice transcript can arrive while
// a prompt is open.
type PlainReader struct {
	in    *bufio.Reader
	out   io.Writer
	voice <-chan string

	once  sync.Once
	lines chan lineResult
}

type lineResult struct {
	text string
	err  error
}

// NewPlainReader creates a reader over in, writing prompts to out.
func NewPlainReader(in io.Reader, out io.Writer) *PlainReader {
	return &PlainReader{in: bufio.NewReader(in), out: out, lines: make(chan lineResult, 1)}
}

// SetVoice makes transcripts from ch answer the open prompt.
func (r *PlainReader) SetVoice(ch <-chan string) {
	r.voice = ch
}

// ReadLine prints the prompt and waits for the next line or transcript.
func (r *PlainReader) ReadLine(prompt string) (Line, error) {
	r.once.Do(func() { go r.readLines() })
	if r.out != nil {
		fmt.Fprint(r.out, prompt)
	}
	select {
	case res, ok := <-r.lines:
		if !ok {
			return Line{}, io.EOF
		}
		return Line{Text: res.text}, res.err
	case t := <-r.voice:
		if r.out != nil {
			fmt.Fprintln(r.out, t)
		}
		return Line{Text: t, Voice: true}, nil
	}
}

func (r *PlainReader) readLines() {
	defer close(r.lines)
	for {
		line, err := r.in.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			r.lines <- lineResult{err: err}
			return
		}
		r.lines <- lineResult{text: strings.TrimRight(line, "\r\n")}
		if err != nil {
			return
		}
	}
}

// Confirm asks a yes/no question; anything but y or yes declines.
func Confirm(r LineReader, question string) bool {
	answer, err := r.ReadLine(question + " [y/N] ")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer.Text)) {
	case "y", "yes":
		return true
	}
	return false
}
