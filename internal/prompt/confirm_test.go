package prompt

import (
	"testing"

	"aligner-lab-backend/internal/models"
	"aligner-lab-backend/internal/production"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func start() production.ProductionStart {
	return production.ProductionStart{
		WorkItem:  models.WorkItem{ID: 7, Arch: models.ArchBoth, TrayNumber: 4},
		CaseCode:  "ALN-001",
		Debit:     production.DebitRequest{Arch: models.ArchBoth, QtyUpper: 3, QtyLower: 3},
		Available: map[models.Arch]int{models.ArchUpper: 10, models.ArchLower: 2},
	}
}

func press(m tea.Model, keys ...tea.KeyMsg) Model {
	for _, k := range keys {
		m, _ = m.Update(k)
	}
	return m.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDetailsFlagShortBalance(t *testing.T) {
	d := Details(start())
	assert.Equal(t, []string{
		"superior: debitar 3 de 10 disponíveis",
		"inferior: debitar 3 de 2 disponíveis (saldo insuficiente)",
	}, d)
	assert.Equal(t, "Iniciar produção do caso ALN-001, placa 4 (ambos)?", Title(start()))

	unlinked := production.ProductionStart{WorkItem: models.WorkItem{ID: 3}}
	assert.Equal(t, "Iniciar produção do item 3?", Title(unlinked))
	assert.Len(t, Details(unlinked), 1)
}

func TestEnterDefaultsToNo(t *testing.T) {
	m := press(NewModel(start()), tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.Confirmed())
}

func TestToggleThenEnterConfirms(t *testing.T) {
	m := press(NewModel(start()), tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.Confirmed())
}

func TestShortcutKeys(t *testing.T) {
	assert.True(t, press(NewModel(start()), runes("s")).Confirmed())
	assert.True(t, press(NewModel(start()), runes("y")).Confirmed())
	assert.False(t, press(NewModel(start()), runes("n")).Confirmed())
	assert.False(t, press(NewModel(start()), runes("y"), tea.KeyMsg{Type: tea.KeyEsc}).Confirmed())
	assert.False(t, press(NewModel(start()), tea.KeyMsg{Type: tea.KeyRight}).Confirmed(), "sem enter não há decisão")
}

func TestViewShowsChoices(t *testing.T) {
	v := NewModel(start()).View()
	assert.Contains(t, v, "ALN-001")
	assert.Contains(t, v, "Sim")
	assert.Contains(t, v, "Não")
	assert.Empty(t, press(NewModel(start()), runes("n")).View())
}
