// Package prompt pede ao operador a confirmação de início de produção no terminal.
package prompt

import (
	"context"
	"fmt"
	"io"
	"strings"

	"aligner-lab-backend/internal/models"
	"aligner-lab-backend/internal/production"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model: pergunta sim/não; "não" é o padrão
type Model struct {
	title   string
	details []string
	yes     bool
	done    bool
}

func NewModel(start production.ProductionStart) Model {
	return Model{title: Title(start), details: Details(start)}
}

func Title(start production.ProductionStart) string {
	w := start.WorkItem
	if start.CaseCode == "" {
		return fmt.Sprintf("Iniciar produção do item %d?", w.ID)
	}
	return fmt.Sprintf("Iniciar produção do caso %s, placa %d (%s)?", start.CaseCode, w.TrayNumber, w.Arch)
}

// Details: uma linha por arcada com o débito e o saldo atual do banco
func Details(start production.ProductionStart) []string {
	if start.CaseCode == "" {
		return []string{"Item sem caso vinculado: o banco de reposição não será debitado."}
	}
	var out []string
	for _, leg := range start.WorkItem.Arch.Legs() {
		qty := start.Debit.QtyLower
		if leg == models.ArchUpper {
			qty = start.Debit.QtyUpper
		}
		line := fmt.Sprintf("%s: debitar %d de %d disponíveis", leg, qty, start.Available[leg])
		if qty > start.Available[leg] {
			line += " (saldo insuficiente)"
		}
		out = append(out, line)
	}
	return out
}

func (m Model) Confirmed() bool { return m.done && m.yes }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.yes = false
		m.done = true
		return m, tea.Quit
	case "y", "s":
		m.yes = true
		m.done = true
		return m, tea.Quit
	case "n":
		m.yes = false
		m.done = true
		return m, tea.Quit
	case "left", "right", "h", "l", "tab":
		m.yes = !m.yes
	case "enter":
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	if m.done {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#6BCB77")).
		MarginBottom(1)
	detailStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888"))
	warnStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF6B6B"))
	activeStyle := lipgloss.NewStyle().
		Bold(true).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6BCB77")).
		Padding(0, 1)
	idleStyle := lipgloss.NewStyle().
		Border(lipgloss.HiddenBorder()).
		Padding(0, 1)

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	for _, d := range m.details {
		style := detailStyle
		if strings.HasSuffix(d, "(saldo insuficiente)") {
			style = warnStyle
		}
		b.WriteString(style.Render("  " + d))
		b.WriteString("\n")
	}

	yes, no := idleStyle.Render("Sim"), activeStyle.Render("Não")
	if m.yes {
		yes, no = activeStyle.Render("Sim"), idleStyle.Render("Não")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, yes, " ", no))
	b.WriteString("\n")
	b.WriteString(detailStyle.Render("s/n, ←/→ e enter"))
	return b.String()
}

// Terminal devolve uma ConfirmFunc que abre o prompt em in/out.
// Qualquer falha do terminal conta como "não".
func Terminal(in io.Reader, out io.Writer) production.ConfirmFunc {
	return func(ctx context.Context, start production.ProductionStart) bool {
		p := tea.NewProgram(NewModel(start),
			tea.WithContext(ctx),
			tea.WithInput(in),
			tea.WithOutput(out),
		)
		final, err := p.Run()
		if err != nil {
			return false
		}
		m, ok := final.(Model)
		return ok && m.Confirmed()
	}
}
