// Package menu implements the interactive terminal menu.
package menu

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"financas/internal/ledger"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 2, 0)
	helpStyle  = lipgloss.NewStyle().Faint(true).Padding(0, 2, 1)
)

// model is the root of the menu: it shows the numbered menu until a screen
// is chosen, then dispatches everything to the active View until BackMsg.
type model struct {
	svc *ledger.Service

	active View
}

func initialModel(svc *ledger.Service) model {
	return model{svc: svc}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.active == nil {
			switch msg.String() {
			case "ctrl+c", "q", "0":
				return m, tea.Quit
			case "1":
				m.active = NewTransactionFormModel(m.svc)
			case "2":
				m.active = NewTransactionListModel(m.svc)
			case "3":
				m.active = NewSummaryModel(m.svc)
			case "4":
				m.active = NewAccountsModel(m.svc)
			case "5":
				m.active = NewAccountFormModel(m.svc)
			case "6":
				m.active = NewCategoryFormModel(m.svc)
			default:
				return m, nil
			}
			return m, m.active.Init()
		}
	case BackMsg:
		m.active = nil
		return m, nil
	}

	if m.active == nil {
		return m, nil
	}
	next, cmd := m.active.Update(msg)
	m.active = next.(View)
	return m, cmd
}

func (m model) View() string {
	if m.active == nil {
		return lipgloss.NewStyle().Padding(2).Render(
			"Finanças\n\n" +
				"1. Registrar transação\n" +
				"2. Transações do mês\n" +
				"3. Resumo do mês\n" +
				"4. Contas e saldos\n" +
				"5. Nova conta\n" +
				"6. Nova categoria\n\n" +
				"0. Sair",
		)
	}
	return titleStyle.Render(m.active.Title()) + "\n" +
		m.active.View() + "\n" +
		helpStyle.Render(m.active.ShortHelp())
}

// Run starts the interactive menu and blocks until the user quits.
func Run(svc *ledger.Service) error {
	p := tea.NewProgram(initialModel(svc))
	_, err := p.Run()
	return err
}
