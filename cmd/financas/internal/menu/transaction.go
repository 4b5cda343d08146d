package menu

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"financas/internal/core"
	"financas/internal/ledger"
	"financas/internal/storage"
)

const serviceTimeout = 10 * time.Second

type transactionFormState int

const (
	transactionFormEdit transactionFormState = iota
	transactionFormSaving
	transactionFormResult
)

type TransactionFormModel struct {
	CommonModel
	svc *ledger.Service

	state   transactionFormState
	form    *huh.Form
	spinner spinner.Model
	err     error

	accounts   []core.Account
	categories []core.Category

	kind        string
	amount      string
	date        string
	accountID   int64
	categoryID  int64
	destination int64
	description string

	status string
}

type transactionSavedMsg struct {
	tx  core.Transaction
	err error
}

func NewTransactionFormModel(svc *ledger.Service) TransactionFormModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := TransactionFormModel{svc: svc, spinner: s, kind: string(core.KindExpense)}

	ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
	defer cancel()
	var err error
	if m.accounts, err = svc.ListAccounts(ctx); err != nil {
		m.err = err
		m.status = fmt.Sprintf("Erro: %v", err)
		m.state = transactionFormResult
		return m
	}
	if m.categories, err = svc.ListCategories(ctx, nil); err != nil {
		m.err = err
		m.status = fmt.Sprintf("Erro: %v", err)
		m.state = transactionFormResult
		return m
	}

	accountOptions := make([]huh.Option[int64], 0, len(m.accounts))
	for _, a := range m.accounts {
		accountOptions = append(accountOptions, huh.NewOption(a.Name, a.ID))
	}
	categoryOptions := []huh.Option[int64]{huh.NewOption("—", int64(0))}
	for _, c := range m.categories {
		categoryOptions = append(categoryOptions, huh.NewOption(fmt.Sprintf("%s (%s)", c.Name, c.Kind.Label()), c.ID))
	}
	destinationOptions := []huh.Option[int64]{huh.NewOption("—", int64(0))}
	for _, a := range m.accounts {
		destinationOptions = append(destinationOptions, huh.NewOption(a.Name, a.ID))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("kind").
				Title("Tipo").
				Options(
					huh.NewOption("Despesa", string(core.KindExpense)),
					huh.NewOption("Receita", string(core.KindIncome)),
					huh.NewOption("Transferência", string(core.KindTransfer)),
				).
				Value(&m.kind),

			huh.NewInput().
				Key("amount").
				Title("Valor").
				Placeholder("0,00").
				Value(&m.amount).
				Validate(func(s string) error {
					_, err := core.ParseDecimalToCents(strings.TrimSpace(s))
					return err
				}),

			huh.NewInput().
				Key("date").
				Title("Data").
				Description("AAAA-MM-DD, vazio para hoje").
				Value(&m.date).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					_, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.Local)
					return err
				}),

			huh.NewSelect[int64]().
				Key("account").
				Title("Conta").
				Options(accountOptions...).
				Value(&m.accountID),

			huh.NewSelect[int64]().
				Key("category").
				Title("Categoria").
				Description("Ignorada em transferências").
				Options(categoryOptions...).
				Value(&m.categoryID),

			huh.NewSelect[int64]().
				Key("destination").
				Title("Conta de destino").
				Description("Apenas para transferências").
				Options(destinationOptions...).
				Value(&m.destination),

			huh.NewInput().
				Key("description").
				Title("Descrição").
				Value(&m.description),
		),
	).WithWidth(50).WithShowHelp(false)

	return m
}

func (m TransactionFormModel) Title() string { return "Registrar transação" }

func (m TransactionFormModel) ShortHelp() string {
	if m.state == transactionFormResult {
		return "Esc: voltar ao menu"
	}
	return "Esc: voltar | Enter: confirmar"
}

func (m TransactionFormModel) Init() tea.Cmd {
	if m.form == nil {
		return nil
	}
	return m.form.Init()
}

func (m TransactionFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	switch m.state {
	case transactionFormEdit:
		return m.updateEdit(msg)
	case transactionFormSaving:
		switch saved := msg.(type) {
		case transactionSavedMsg:
			m.state = transactionFormResult
			if saved.err != nil {
				m.err = saved.err
				m.status = fmt.Sprintf("Erro: %v", saved.err)
			} else {
				m.status = fmt.Sprintf("%s registrada: %s", saved.tx.Kind.Label(), saved.tx.Amount)
			}
		case spinner.TickMsg:
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(saved)
			return m, cmd
		}
	}
	return m, nil
}

func (m TransactionFormModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
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

	params := storage.RecordParams{
		Kind:            core.TransactionKind(m.kind),
		SourceAccountID: m.accountID,
		Description:     strings.TrimSpace(m.description),
	}
	cents, err := core.ParseDecimalToCents(strings.TrimSpace(m.amount))
	if err != nil {
		m.state = transactionFormResult
		m.err = err
		m.status = fmt.Sprintf("Erro: %v", err)
		return m, nil
	}
	params.Amount = core.Money{Cents: cents}
	if v := strings.TrimSpace(m.date); v != "" {
		date, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			m.state = transactionFormResult
			m.err = err
			m.status = fmt.Sprintf("Erro: %v", err)
			return m, nil
		}
		params.Date = date
	}
	if m.categoryID != 0 {
		categoryID := m.categoryID
		params.CategoryID = &categoryID
	}
	if m.destination != 0 {
		destinationID := m.destination
		params.DestinationAccountID = &destinationID
	}

	m.state = transactionFormSaving
	return m, tea.Batch(m.spinner.Tick, m.saveCmd(params))
}

func (m TransactionFormModel) saveCmd(params storage.RecordParams) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
		defer cancel()
		tx, err := svc.RecordTransaction(ctx, params)
		return transactionSavedMsg{tx: tx, err: err}
	}
}

func (m TransactionFormModel) View() string {
	style := lipgloss.NewStyle().Padding(1)
	switch m.state {
	case transactionFormSaving:
		return style.Render(fmt.Sprintf("%s Salvando transação...", m.spinner.View()))
	case transactionFormResult:
		return style.Render(m.status + "\n\nEsc: voltar ao menu")
	}
	if m.form == nil {
		return style.Render("Nenhuma conta cadastrada. Crie uma conta primeiro.")
	}
	return style.Render(m.form.View())
}
