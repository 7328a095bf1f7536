package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/seedit/seedit-challenge/internal/challenge"
	"github.com/seedit/seedit-challenge/internal/errors"
	"github.com/seedit/seedit-challenge/internal/logging"
	"github.com/seedit/seedit-challenge/internal/publication"
	"github.com/seedit/seedit-challenge/internal/transport"
	"github.com/seedit/seedit-challenge/internal/tui/styles"
)

// Image display modes, matching the challenge.image_mode config values.
const (
	ImagePlaceholder = "placeholder"
	ImageBase64      = "base64"
)

const defaultWidth = 64

// Options configures a Model. Zero values select defaults.
type Options struct {
	Styles         *styles.ModalStyles
	Keys           *KeyMap
	Width          int
	ShowQueueBadge bool
	PreviewLength  int
	ImageMode      string
	MaskAnswers    bool
	// Lookup resolves parent comments for reply subtitles.
	Lookup publication.CommentLookup
	// Listener, when set, keeps the view in sync with rounds announced by
	// other goroutines.
	Listener *Listener
	Logger   *logging.Logger
}

// describer is implemented by publications that expose their content.
type describer interface {
	Descriptor() publication.Publication
}

// verifier is implemented by publications that report verification.
type verifier interface {
	Verifications() <-chan transport.Verification
}

// Model is the Bubble Tea model of the challenge modal.
type Model struct {
	coord  *challenge.Coordinator
	opts   Options
	styles *styles.ModalStyles
	keys   KeyMap
	logger *logging.Logger

	input     textinput.Model
	headID    string
	index     int
	status    string
	statusErr bool
	quitting  bool
}

// New creates a modal presenting c's queue.
func New(c *challenge.Coordinator, opts Options) Model {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = publication.DefaultPreviewLength
	}
	if opts.ImageMode == "" {
		opts.ImageMode = ImagePlaceholder
	}
	st := opts.Styles
	if st == nil {
		st = styles.NewModalStyles(styles.DefaultPalette())
	}
	keys := DefaultKeyMap()
	if opts.Keys != nil {
		keys = *opts.Keys
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	ti := textinput.New()
	ti.Placeholder = "answer"
	ti.CharLimit = 256
	ti.Width = opts.Width - 8
	ti.Prompt = "> "
	if opts.MaskAnswers {
		ti.EchoMode = textinput.EchoPassword
	}
	ti.Focus()

	m := Model{
		coord:  c,
		opts:   opts,
		styles: st,
		keys:   keys,
		logger: logger.WithComponent("tui"),
		input:  ti,
		index:  -1,
	}
	m.sync()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.opts.Listener != nil {
		cmds = append(cmds, m.opts.Listener.Wait())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 && msg.Width < m.opts.Width+4 {
			m.input.Width = max(10, msg.Width-12)
		}
		return m, nil

	case RefreshMsg:
		m.sync()
		if m.opts.Listener != nil {
			return m, m.opts.Listener.Wait()
		}
		return m, nil

	case VerificationMsg:
		if err := msg.Verification.Err(); err != nil {
			m.setError(err)
		} else {
			m.setStatus(msg.Verification.Message())
		}
		return m, nil

	case DoneMsg:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	_, w, ok := m.coord.CurrentAnnouncement()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		if err := m.coord.Dismiss(); err != nil {
			m.setError(err)
		} else {
			m.setStatus("challenge cancelled")
		}
		m.sync()
		return m, nil

	case key.Matches(msg, m.keys.Previous):
		m.record(w)
		m.navigate(w.Retreat())
		return m, nil

	case key.Matches(msg, m.keys.Next):
		m.record(w)
		m.navigate(w.Advance())
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		m.record(w)
		return m.advanceOrSubmit(w)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.record(w)
	return m, cmd
}

func (m *Model) advanceOrSubmit(w *challenge.Walkthrough) (tea.Model, tea.Cmd) {
	if w.HasNext() {
		m.navigate(w.Advance())
		return *m, nil
	}

	pub := w.Announcement().Publication()
	kind := w.Announcement().PublicationKind()
	err := w.Submit()
	m.sync()
	if err != nil {
		m.setError(err)
		return *m, nil
	}
	m.setStatus("answers submitted")

	if v, ok := pub.(verifier); ok {
		return *m, waitVerification(kind, v.Verifications())
	}
	return *m, nil
}

// navigate applies the result of Advance or Retreat. Moving past either
// end is a disabled button, not an error worth showing.
func (m *Model) navigate(err error) {
	if err != nil && !errors.Is(err, errors.ErrNoNextQuestion) && !errors.Is(err, errors.ErrNoPreviousQuestion) {
		m.setError(err)
	}
	m.sync()
}

// record stores the input's value as the answer to the current question.
func (m *Model) record(w *challenge.Walkthrough) {
	if err := w.RecordAnswer(w.CurrentIndex(), m.input.Value()); err != nil {
		m.logger.Debug("answer not recorded", "error", err.Error())
	}
}

// sync re-reads the head from the coordinator, loading the stored answer
// whenever the head or the question changes.
func (m *Model) sync() {
	a, w, ok := m.coord.CurrentAnnouncement()
	if !ok {
		m.headID = ""
		m.index = -1
		m.input.Reset()
		return
	}
	idx := w.CurrentIndex()
	if a.ID() == m.headID && idx == m.index {
		return
	}
	m.headID = a.ID()
	m.index = idx
	m.input.SetValue(w.Answer(idx))
	m.input.CursorEnd()
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

// setError shows err on the status line. Precondition violations are
// presenter bugs and only get logged.
func (m *Model) setError(err error) {
	if errors.IsPrecondition(err) {
		m.logger.Error("challenge action rejected", "error", err.Error())
		return
	}
	m.status = err.Error()
	m.statusErr = true
	m.logger.Warn("challenge action failed", "error", err.Error(), "user_facing", errors.IsUserFacing(err))
}

func waitVerification(kind string, ch <-chan transport.Verification) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return VerificationMsg{Kind: kind, Verification: v}
	}
}

// Status returns the status line text and whether it reports an error.
func (m Model) Status() (string, bool) { return m.status, m.statusErr }

// Input returns the current contents of the answer field.
func (m Model) Input() string { return m.input.Value() }

// Quitting reports whether the model has asked the program to exit.
func (m Model) Quitting() bool { return m.quitting }
