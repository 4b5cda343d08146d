package menu

import (
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"financas/internal/core"
	"financas/internal/ledger"
	"financas/internal/storage"
)

func testService(t *testing.T) *ledger.Service {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "financas.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return ledger.New(store, nil)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestMenuActivatesAndReturns(t *testing.T) {
	var m tea.Model = initialModel(testService(t))

	m, _ = m.Update(key("3"))
	root := m.(model)
	if root.active == nil || root.active.Title() != "Resumo do mês" {
		t.Fatalf("expected summary screen, got %#v", root.active)
	}
	if root.active.ShortHelp() == "" {
		t.Fatal("active screen must provide help text")
	}

	m, _ = m.Update(BackMsg{})
	root = m.(model)
	if root.active != nil {
		t.Fatal("expected return to the numbered menu")
	}

	m, _ = m.Update(key("5"))
	root = m.(model)
	if root.active == nil || root.active.Title() != "Nova conta" {
		t.Fatalf("expected account form, got %#v", root.active)
	}
}

func TestMenuIgnoresUnknownKeys(t *testing.T) {
	var m tea.Model = initialModel(testService(t))

	m, cmd := m.Update(key("9"))
	root := m.(model)
	if root.active != nil || cmd != nil {
		t.Fatal("unknown key must leave the menu showing")
	}
}

func TestAccountFormIgnoresMessagesWhileSaving(t *testing.T) {
	m := NewAccountFormModel(testService(t))
	m.saving = true

	next, cmd := m.Update(key("x"))
	if cmd != nil {
		t.Fatal("messages during save must not issue commands")
	}
	form := next.(AccountFormModel)
	if !form.saving || form.done {
		t.Fatalf("saving state lost: saving=%v done=%v", form.saving, form.done)
	}

	next, _ = form.Update(accountSavedMsg{account: core.Account{Name: "Banco"}})
	form = next.(AccountFormModel)
	if !form.done || form.saving {
		t.Fatalf("save result must finish the form: saving=%v done=%v", form.saving, form.done)
	}
}

func TestCategoryFormIgnoresMessagesWhileSaving(t *testing.T) {
	m := NewCategoryFormModel(testService(t))
	m.saving = true

	next, cmd := m.Update(key("x"))
	if cmd != nil {
		t.Fatal("messages during save must not issue commands")
	}
	form := next.(CategoryFormModel)
	if !form.saving || form.done {
		t.Fatalf("saving state lost: saving=%v done=%v", form.saving, form.done)
	}
}
