package styles

import "github.com/charmbracelet/lipgloss"

// ModalStyles holds every style the challenge modal renders with.
type ModalStyles struct {
	Box            lipgloss.Style
	Title          lipgloss.Style
	Subtitle       lipgloss.Style
	Badge          lipgloss.Style
	Counter        lipgloss.Style
	Question       lipgloss.Style
	Image          lipgloss.Style
	Input          lipgloss.Style
	Button         lipgloss.Style
	ButtonPrimary  lipgloss.Style
	ButtonDisabled lipgloss.Style
	StatusOK       lipgloss.Style
	StatusError    lipgloss.Style
	HelpKey        lipgloss.Style
	HelpDesc       lipgloss.Style
	Waiting        lipgloss.Style
}

// NewModalStyles builds the modal styles for p.
func NewModalStyles(p *ColorPalette) *ModalStyles {
	if p == nil {
		p = DefaultPalette()
	}
	button := lipgloss.NewStyle().
		Foreground(p.Text).
		Background(p.Surface).
		Padding(0, 2).
		MarginRight(1)

	return &ModalStyles{
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(1, 2),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary),
		Subtitle: lipgloss.NewStyle().
			Foreground(p.Muted).
			Italic(true).
			MarginBottom(1),
		Badge: lipgloss.NewStyle().
			Foreground(p.Surface).
			Background(p.Warning).
			Padding(0, 1).
			MarginLeft(1),
		Counter: lipgloss.NewStyle().
			Foreground(p.Muted),
		Question: lipgloss.NewStyle().
			Foreground(p.Text).
			MarginBottom(1),
		Image: lipgloss.NewStyle().
			Foreground(p.Muted).
			Border(lipgloss.NormalBorder()).
			BorderForeground(p.Border).
			Padding(0, 1).
			MarginBottom(1),
		Input: lipgloss.NewStyle().
			Foreground(p.Text).
			MarginBottom(1),
		Button: button,
		ButtonPrimary: button.
			Bold(true).
			Foreground(p.Surface).
			Background(p.Primary),
		ButtonDisabled: button.
			Foreground(p.Muted),
		StatusOK: lipgloss.NewStyle().
			Foreground(p.Secondary),
		StatusError: lipgloss.NewStyle().
			Foreground(p.Error),
		HelpKey: lipgloss.NewStyle().
			Foreground(p.Primary).
			Bold(true),
		HelpDesc: lipgloss.NewStyle().
			Foreground(p.Muted),
		Waiting: lipgloss.NewStyle().
			Foreground(p.Muted).
			Italic(true),
	}
}
