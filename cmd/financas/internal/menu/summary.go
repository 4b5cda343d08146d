package menu

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"financas/internal/core"
	"financas/internal/ledger"
)

// SummaryModel shows the current month's totals and expense breakdown.
type SummaryModel struct {
	CommonModel
	svc *ledger.Service

	summary core.MonthSummary
	loaded  bool
	err     error
}

type summaryLoadedMsg struct {
	summary core.MonthSummary
	err     error
}

func NewSummaryModel(svc *ledger.Service) SummaryModel {
	return SummaryModel{svc: svc}
}

func (m SummaryModel) Title() string     { return "Resumo do mês" }
func (m SummaryModel) ShortHelp() string { return "Esc: voltar ao menu" }

func (m SummaryModel) Init() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
		defer cancel()

		now := time.Now()
		summary, err := svc.MonthSummary(ctx, core.MonthRef{Year: now.Year(), Month: int(now.Month())})
		return summaryLoadedMsg{summary: summary, err: err}
	}
}

func (m SummaryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc || msg.String() == "q" {
			return m, Back
		}
	case summaryLoadedMsg:
		m.summary = msg.summary
		m.err = msg.err
		m.loaded = true
	}
	return m, nil
}

func (m SummaryModel) View() string {
	style := lipgloss.NewStyle().Padding(1)
	if m.err != nil {
		return style.Render(fmt.Sprintf("Erro: %v", m.err))
	}
	if !m.loaded {
		return style.Render("Carregando resumo...")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Resumo de %02d/%d\n\n", m.summary.Month.Month, m.summary.Month.Year)
	fmt.Fprintf(&b, "Receitas: %s\n", m.summary.Income)
	fmt.Fprintf(&b, "Despesas: %s\n", m.summary.Expenses)
	fmt.Fprintf(&b, "Saldo:    %s\n", m.summary.Net)
	if len(m.summary.ByCategory) > 0 {
		b.WriteString("\nDespesas por categoria:\n")
		for _, row := range m.summary.ByCategory {
			fmt.Fprintf(&b, "  %-20s %s\n", row.Name, row.Amount)
		}
	}
	return style.Render(b.String())
}
