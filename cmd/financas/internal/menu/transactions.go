package menu

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"financas/internal/core"
	"financas/internal/ledger"
)

type transactionListState int

const (
	transactionListPick transactionListState = iota
	transactionListLoading
	transactionListShow
)

// TransactionListModel lists the current month's transactions for one account.
type TransactionListModel struct {
	CommonModel
	svc *ledger.Service

	state     transactionListState
	form      *huh.Form
	accountID int64

	lines []string
	err   error
}

type transactionsLoadedMsg struct {
	lines []string
	err   error
}

func NewTransactionListModel(svc *ledger.Service) TransactionListModel {
	m := TransactionListModel{svc: svc}

	ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
	defer cancel()
	accounts, err := svc.ListAccounts(ctx)
	if err != nil {
		m.err = err
		m.state = transactionListShow
		return m
	}
	if len(accounts) == 0 {
		m.state = transactionListShow
		return m
	}

	options := make([]huh.Option[int64], 0, len(accounts))
	for _, a := range accounts {
		options = append(options, huh.NewOption(a.Name, a.ID))
	}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int64]().
				Key("account").
				Title("Conta").
				Options(options...).
				Value(&m.accountID),
		),
	).WithWidth(45).WithShowHelp(false)

	return m
}

func (m TransactionListModel) Title() string { return "Transações do mês" }

func (m TransactionListModel) ShortHelp() string {
	if m.state == transactionListShow {
		return "Esc: voltar ao menu"
	}
	return "Esc: voltar | Enter: confirmar"
}

func (m TransactionListModel) Init() tea.Cmd {
	if m.form == nil {
		return nil
	}
	return m.form.Init()
}

func (m TransactionListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	switch m.state {
	case transactionListPick:
		if m.form == nil {
			return m, nil
		}
		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}
		if m.form.State != huh.StateCompleted {
			return m, cmd
		}
		m.state = transactionListLoading
		return m, m.loadCmd(m.accountID)
	case transactionListLoading:
		if loaded, ok := msg.(transactionsLoadedMsg); ok {
			m.state = transactionListShow
			m.lines = loaded.lines
			m.err = loaded.err
		}
	}
	return m, nil
}

func (m TransactionListModel) loadCmd(accountID int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
		defer cancel()

		now := time.Now()
		month := core.MonthRef{Year: now.Year(), Month: int(now.Month())}
		txs, err := svc.ListTransactions(ctx, accountID, &month)
		if err != nil {
			return transactionsLoadedMsg{err: err}
		}

		names, err := lookupNames(ctx, svc)
		if err != nil {
			return transactionsLoadedMsg{err: err}
		}

		var lines []string
		for _, tx := range txs {
			lines = append(lines, formatTransaction(tx, names))
		}
		return transactionsLoadedMsg{lines: lines}
	}
}

func (m TransactionListModel) View() string {
	style := lipgloss.NewStyle().Padding(1)
	switch m.state {
	case transactionListLoading:
		return style.Render("Carregando transações...")
	case transactionListShow:
		if m.err != nil {
			return style.Render(fmt.Sprintf("Erro: %v", m.err))
		}
		if len(m.lines) == 0 {
			return style.Render("Nenhuma transação neste mês.")
		}
		return style.Render(strings.Join(m.lines, "\n"))
	}
	if m.form == nil {
		return style.Render("Nenhuma conta cadastrada.")
	}
	return style.Render(m.form.View())
}

// nameIndex maps account and category ids to display names.
type nameIndex struct {
	accounts   map[int64]string
	categories map[int64]string
}

func lookupNames(ctx context.Context, svc *ledger.Service) (nameIndex, error) {
	idx := nameIndex{
		accounts:   make(map[int64]string),
		categories: make(map[int64]string),
	}
	accounts, err := svc.ListAccounts(ctx)
	if err != nil {
		return nameIndex{}, err
	}
	for _, a := range accounts {
		idx.accounts[a.ID] = a.Name
	}
	categories, err := svc.ListCategories(ctx, nil)
	if err != nil {
		return nameIndex{}, err
	}
	for _, c := range categories {
		idx.categories[c.ID] = c.Name
	}
	return idx, nil
}

func formatTransaction(tx core.Transaction, names nameIndex) string {
	detail := ""
	switch {
	case tx.Kind == core.KindTransfer && tx.DestinationAccountID != nil:
		detail = names.accounts[tx.SourceAccountID] + " → " + names.accounts[*tx.DestinationAccountID]
	case tx.CategoryID != nil:
		detail = names.categories[*tx.CategoryID]
	}
	line := fmt.Sprintf("%s  %-13s %10s  %s",
		tx.Date.Format("2006-01-02"), tx.Kind.Label(), tx.Amount, detail)
	if tx.Description != "" {
		line += "  " + tx.Description
	}
	return line
}
