package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/seedit/seedit-challenge/internal/challenge"
	"github.com/seedit/seedit-challenge/internal/publication"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	a, w, ok := m.coord.CurrentAnnouncement()
	if !ok {
		body := m.styles.Waiting.Render("waiting for challenges...")
		return m.styles.Box.Width(m.opts.Width).Render(body + "\n\n" + m.renderStatus() + m.renderHelp())
	}

	var b strings.Builder
	prompt := m.prompt(a)

	b.WriteString(m.styles.Title.Render(prompt.Title))
	if pending := m.coord.Size() - 1; m.opts.ShowQueueBadge && pending > 0 {
		b.WriteString(m.styles.Badge.Render(fmt.Sprintf("+%d pending", pending)))
	}
	b.WriteString("\n")
	if prompt.Subtitle != "" {
		b.WriteString(m.styles.Subtitle.Render(prompt.Subtitle))
	}
	b.WriteString("\n")

	b.WriteString(m.renderQuestion(w.CurrentQuestion()))
	b.WriteString("\n")
	b.WriteString(m.styles.Input.Render(m.input.View()))
	b.WriteString("\n")

	b.WriteString(m.renderButtons(w))
	b.WriteString("  ")
	b.WriteString(m.styles.Counter.Render(publication.Counter(w.CurrentIndex(), w.Total())))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatus())
	b.WriteString(m.renderHelp())

	return m.styles.Box.Width(m.opts.Width).Render(b.String())
}

// prompt derives the title and subtitle for a.
func (m Model) prompt(a *challenge.Announcement) publication.Prompt {
	d, ok := a.Publication().(describer)
	if !ok {
		return publication.Prompt{Title: "challenge", Subtitle: "for " + a.PublicationKind()}
	}
	desc := d.Descriptor()
	opts := publication.DescribeOptions{
		Lookup:        m.opts.Lookup,
		PreviewLength: m.opts.PreviewLength,
	}
	if target, ok := a.Target().(*publication.Comment); ok {
		opts.Target = target
	}
	return publication.Describe(&desc, opts)
}

func (m Model) renderQuestion(q challenge.Question) string {
	switch q.Kind {
	case challenge.KindImagePNG:
		if m.opts.ImageMode == ImageBase64 {
			return m.styles.Image.Render("data:image/png;base64," + q.Payload)
		}
		return m.styles.Image.Render(fmt.Sprintf("[image challenge, %d bytes of base64 png]", len(q.Payload)))
	default:
		return m.styles.Question.Render(q.Payload)
	}
}

func (m Model) renderButtons(w *challenge.Walkthrough) string {
	buttons := []string{m.styles.Button.Render("Cancel")}
	if w.HasPrevious() {
		buttons = append(buttons, m.styles.Button.Render("Previous"))
	} else {
		buttons = append(buttons, m.styles.ButtonDisabled.Render("Previous"))
	}
	if w.HasNext() {
		buttons = append(buttons, m.styles.ButtonPrimary.Render("Next"))
	} else {
		buttons = append(buttons, m.styles.ButtonPrimary.Render("Submit"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, buttons...)
}

func (m Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return m.styles.StatusError.Render(m.status) + "\n"
	}
	return m.styles.StatusOK.Render(m.status) + "\n"
}

func (m Model) renderHelp() string {
	parts := make([]string, 0, len(m.keys.ShortHelp()))
	for _, kb := range m.keys.ShortHelp() {
		h := kb.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, m.styles.HelpKey.Render(h.Key)+" "+m.styles.HelpDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}
