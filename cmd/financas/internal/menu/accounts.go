package menu

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"financas/internal/core"
	"financas/internal/ledger"
)

// AccountsModel shows every account with its current balance.
type AccountsModel struct {
	CommonModel
	svc *ledger.Service

	lines []string
	err   error
}

type accountsLoadedMsg struct {
	lines []string
	err   error
}

func NewAccountsModel(svc *ledger.Service) AccountsModel {
	return AccountsModel{svc: svc}
}

func (m AccountsModel) Title() string     { return "Contas e saldos" }
func (m AccountsModel) ShortHelp() string { return "Esc: voltar ao menu" }

func (m AccountsModel) Init() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
		defer cancel()

		accounts, err := svc.ListAccounts(ctx)
		if err != nil {
			return accountsLoadedMsg{err: err}
		}
		var lines []string
		for _, a := range accounts {
			balance, err := svc.Balance(ctx, a.ID)
			if err != nil {
				return accountsLoadedMsg{err: err}
			}
			lines = append(lines, fmt.Sprintf("%-20s %s", a.Name, balance))
		}
		return accountsLoadedMsg{lines: lines}
	}
}

func (m AccountsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc || msg.String() == "q" {
			return m, Back
		}
	case accountsLoadedMsg:
		m.lines = msg.lines
		m.err = msg.err
	}
	return m, nil
}

func (m AccountsModel) View() string {
	style := lipgloss.NewStyle().Padding(1)
	if m.err != nil {
		return style.Render(fmt.Sprintf("Erro: %v", m.err))
	}
	if len(m.lines) == 0 {
		return style.Render("Nenhuma conta cadastrada.")
	}
	return style.Render(strings.Join(m.lines, "\n"))
}

// AccountFormModel creates a new account.
type AccountFormModel struct {
	CommonModel
	svc *ledger.Service

	form    *huh.Form
	name    string
	opening string
	status  string
	saving  bool
	done    bool
}

type accountSavedMsg struct {
	account core.Account
	err     error
}

func NewAccountFormModel(svc *ledger.Service) AccountFormModel {
	m := AccountFormModel{svc: svc}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Nome da conta").
				Value(&m.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return core.ErrEmptyName
					}
					return nil
				}),

			huh.NewInput().
				Key("opening").
				Title("Saldo inicial").
				Placeholder("0,00").
				Value(&m.opening).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					_, err := core.ParseSignedCents(strings.TrimSpace(s))
					return err
				}),
		),
	).WithWidth(45).WithShowHelp(false)
	return m
}

func (m AccountFormModel) Title() string     { return "Nova conta" }
func (m AccountFormModel) ShortHelp() string { return "Esc: voltar | Enter: confirmar" }

func (m AccountFormModel) Init() tea.Cmd { return m.form.Init() }

func (m AccountFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}
	if saved, ok := msg.(accountSavedMsg); ok {
		m.saving = false
		m.done = true
		if saved.err != nil {
			m.status = fmt.Sprintf("Erro: %v", saved.err)
		} else {
			m.status = fmt.Sprintf("Conta criada: %s", saved.account.Name)
		}
		return m, nil
	}
	// While the save command runs, ignore everything else so a stray
	// message cannot re-enter the completed form and save twice.
	if m.done || m.saving {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.saving = true
	svc := m.svc
	name := strings.TrimSpace(m.name)
	opening := strings.TrimSpace(m.opening)
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
		defer cancel()

		var cents int64
		if opening != "" {
			var err error
			if cents, err = core.ParseSignedCents(opening); err != nil {
				return accountSavedMsg{err: err}
			}
		}
		account, err := svc.CreateAccount(ctx, name, core.Money{Cents: cents})
		return accountSavedMsg{account: account, err: err}
	}
}

func (m AccountFormModel) View() string {
	style := lipgloss.NewStyle().Padding(1)
	if m.done {
		return style.Render(m.status + "\n\nEsc: voltar ao menu")
	}
	if m.saving {
		return style.Render("Salvando conta...")
	}
	return style.Render(m.form.View())
}

// CategoryFormModel creates a new category.
type CategoryFormModel struct {
	CommonModel
	svc *ledger.Service

	form   *huh.Form
	name   string
	kind   string
	status string
	saving bool
	done   bool
}

type categorySavedMsg struct {
	category core.Category
	err      error
}

func NewCategoryFormModel(svc *ledger.Service) CategoryFormModel {
	m := CategoryFormModel{svc: svc, kind: string(core.CategoryExpense)}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Nome da categoria").
				Value(&m.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return core.ErrEmptyName
					}
					return nil
				}),

			huh.NewSelect[string]().
				Key("kind").
				Title("Tipo").
				Options(
					huh.NewOption("Despesa", string(core.CategoryExpense)),
					huh.NewOption("Receita", string(core.CategoryIncome)),
				).
				Value(&m.kind),
		),
	).WithWidth(45).WithShowHelp(false)
	return m
}

func (m CategoryFormModel) Title() string     { return "Nova categoria" }
func (m CategoryFormModel) ShortHelp() string { return "Esc: voltar | Enter: confirmar" }

func (m CategoryFormModel) Init() tea.Cmd { return m.form.Init() }

func (m CategoryFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}
	if saved, ok := msg.(categorySavedMsg); ok {
		m.saving = false
		m.done = true
		if saved.err != nil {
			m.status = fmt.Sprintf("Erro: %v", saved.err)
		} else {
			m.status = fmt.Sprintf("Categoria criada: %s (%s)", saved.category.Name, saved.category.Kind.Label())
		}
		return m, nil
	}
	if m.done || m.saving {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.saving = true
	svc := m.svc
	name := strings.TrimSpace(m.name)
	kind := core.CategoryKind(m.kind)
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
		defer cancel()
		category, err := svc.CreateCategory(ctx, name, kind)
		return categorySavedMsg{category: category, err: err}
	}
}

func (m CategoryFormModel) View() string {
	style := lipgloss.NewStyle().Padding(1)
	if m.done {
		return style.Render(m.status + "\n\nEsc: voltar ao menu")
	}
	if m.saving {
		return style.Render("Salvando categoria...")
	}
	return style.Render(m.form.View())
}
