package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"financas/internal/core"
)

// testLedger opens a fresh SQLite database in a temp directory.
func testLedger(t *testing.T) *Ledger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "financas-test.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func int64p(v int64) *int64 { return &v }

func TestOpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "financas-test.db")

	l, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	account, err := l.CreateAccount(ctx, "Carteira", core.Money{Cents: 500})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	l.Close()

	// Reopening runs migrations again; data must survive.
	l, err = Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer l.Close()

	accounts, err := l.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].ID != account.ID || accounts[0].Name != "Carteira" {
		t.Fatalf("data lost after re-migration: %+v", accounts)
	}
	if accounts[0].OpeningBalance.Cents != 500 {
		t.Fatalf("opening balance = %d, want 500", accounts[0].OpeningBalance.Cents)
	}
}

func TestCreateAndListAccounts(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)

	if _, err := l.CreateAccount(ctx, "  ", core.Money{}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("empty name: got %v, want ErrEmptyName", err)
	}

	b, err := l.CreateAccount(ctx, "Banco", core.Money{Cents: 10000})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	a, err := l.CreateAccount(ctx, "Carteira", core.Money{Cents: -250})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	accounts, err := l.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(accounts))
	}
	// Ordered by name.
	if accounts[0].ID != b.ID || accounts[1].ID != a.ID {
		t.Fatalf("unexpected order: %+v", accounts)
	}
	if accounts[1].OpeningBalance.Cents != -250 {
		t.Fatalf("negative opening balance not round-tripped: %+v", accounts[1])
	}
}

func TestCreateCategoryIdempotent(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)

	first, err := l.CreateCategory(ctx, "Salário", core.CategoryIncome)
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	again, err := l.CreateCategory(ctx, "Salário", core.CategoryIncome)
	if err != nil {
		t.Fatalf("repeat CreateCategory: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("duplicate created: first id %d, again id %d", first.ID, again.ID)
	}

	// Same name with the other kind is a distinct category.
	other, err := l.CreateCategory(ctx, "Salário", core.CategoryExpense)
	if err != nil {
		t.Fatalf("CreateCategory other kind: %v", err)
	}
	if other.ID == first.ID {
		t.Fatal("same id for different kinds")
	}

	if _, err := l.CreateCategory(ctx, "x", "transfer"); !errors.Is(err, core.ErrInvalidKind) {
		t.Fatalf("bad kind: got %v, want ErrInvalidKind", err)
	}
}

func TestListCategoriesFilter(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)

	mustCategory(t, l, "Salário", core.CategoryIncome)
	mustCategory(t, l, "Alimentação", core.CategoryExpense)
	mustCategory(t, l, "Transporte", core.CategoryExpense)

	expense := core.CategoryExpense
	got, err := l.ListCategories(ctx, &expense)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d expense categories, want 2", len(got))
	}
	for _, c := range got {
		if c.Kind != core.CategoryExpense {
			t.Fatalf("filter leaked %+v", c)
		}
	}

	all, err := l.ListCategories(ctx, nil)
	if err != nil {
		t.Fatalf("ListCategories all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d categories, want 3", len(all))
	}
}

func TestRecordTransactionValidation(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)

	account := mustAccount(t, l, "Carteira", 0)
	other := mustAccount(t, l, "Banco", 0)
	income := mustCategory(t, l, "Salário", core.CategoryIncome)
	expense := mustCategory(t, l, "Lazer", core.CategoryExpense)

	cases := []struct {
		name string
		p    RecordParams
		want error
	}{
		{
			name: "zero amount",
			p:    RecordParams{Kind: core.KindIncome, Amount: core.Money{}, SourceAccountID: account.ID, CategoryID: &income.ID},
			want: core.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			p:    RecordParams{Kind: core.KindExpense, Amount: core.Money{Cents: -100}, SourceAccountID: account.ID, CategoryID: &expense.ID},
			want: core.ErrInvalidAmount,
		},
		{
			name: "missing source account",
			p:    RecordParams{Kind: core.KindIncome, Amount: core.Money{Cents: 100}, SourceAccountID: 999, CategoryID: &income.ID},
			want: core.ErrAccountNotFound,
		},
		{
			name: "missing source account without category",
			p:    RecordParams{Kind: core.KindIncome, Amount: core.Money{Cents: 100}, SourceAccountID: 999},
			want: core.ErrAccountNotFound,
		},
		{
			name: "missing source account without destination",
			p:    RecordParams{Kind: core.KindTransfer, Amount: core.Money{Cents: 100}, SourceAccountID: 999},
			want: core.ErrAccountNotFound,
		},
		{
			name: "income without category",
			p:    RecordParams{Kind: core.KindIncome, Amount: core.Money{Cents: 100}, SourceAccountID: account.ID},
			want: core.ErrCategoryRequired,
		},
		{
			name: "income with expense category",
			p:    RecordParams{Kind: core.KindIncome, Amount: core.Money{Cents: 100}, SourceAccountID: account.ID, CategoryID: &expense.ID},
			want: core.ErrCategoryKindMismatch,
		},
		{
			name: "expense with income category",
			p:    RecordParams{Kind: core.KindExpense, Amount: core.Money{Cents: 100}, SourceAccountID: account.ID, CategoryID: &income.ID},
			want: core.ErrCategoryKindMismatch,
		},
		{
			name: "nonexistent category",
			p:    RecordParams{Kind: core.KindExpense, Amount: core.Money{Cents: 100}, SourceAccountID: account.ID, CategoryID: int64p(999)},
			want: core.ErrCategoryNotFound,
		},
		{
			name: "transfer without destination",
			p:    RecordParams{Kind: core.KindTransfer, Amount: core.Money{Cents: 100}, SourceAccountID: account.ID},
			want: core.ErrDestinationRequired,
		},
		{
			name: "transfer to itself",
			p:    RecordParams{Kind: core.KindTransfer, Amount: core.Money{Cents: 100}, SourceAccountID: account.ID, DestinationAccountID: &account.ID},
			want: core.ErrSameAccountTransfer,
		},
		{
			name: "transfer to missing account",
			p:    RecordParams{Kind: core.KindTransfer, Amount: core.Money{Cents: 100}, SourceAccountID: account.ID, DestinationAccountID: int64p(999)},
			want: core.ErrAccountNotFound,
		},
	}
	for _, tc := range cases {
		if _, err := l.RecordTransaction(ctx, tc.p); !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}

	// No failed attempt may have written a row.
	for _, id := range []int64{account.ID, other.ID} {
		txs, err := l.ListTransactions(ctx, id, nil)
		if err != nil {
			t.Fatalf("ListTransactions: %v", err)
		}
		if len(txs) != 0 {
			t.Fatalf("account %d has %d transactions after failed writes", id, len(txs))
		}
	}
}

func TestTransferIgnoresCategory(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)

	a := mustAccount(t, l, "Carteira", 0)
	b := mustAccount(t, l, "Banco", 0)
	cat := mustCategory(t, l, "Lazer", core.CategoryExpense)

	tx, err := l.RecordTransaction(ctx, RecordParams{
		Kind:                 core.KindTransfer,
		Amount:               core.Money{Cents: 100},
		SourceAccountID:      a.ID,
		CategoryID:           &cat.ID, // must be dropped
		DestinationAccountID: &b.ID,
	})
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	if tx.CategoryID != nil {
		t.Fatalf("transfer kept category %d", *tx.CategoryID)
	}

	stored, err := l.GetTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if stored.CategoryID != nil {
		t.Fatal("stored transfer has a category")
	}
}

func TestRecordTransactionDefaultsDate(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)
	fixed := time.Date(2025, 3, 14, 15, 9, 26, 0, time.Local)
	l.now = func() time.Time { return fixed }

	a := mustAccount(t, l, "Carteira", 0)
	cat := mustCategory(t, l, "Salário", core.CategoryIncome)

	tx, err := l.RecordTransaction(ctx, RecordParams{
		Kind:            core.KindIncome,
		Amount:          core.Money{Cents: 100},
		SourceAccountID: a.ID,
		CategoryID:      &cat.ID,
	})
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	if !tx.Date.Equal(fixed) {
		t.Fatalf("date = %v, want %v", tx.Date, fixed)
	}

	stored, err := l.GetTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if !stored.Date.Equal(fixed) {
		t.Fatalf("stored date = %v, want %v", stored.Date, fixed)
	}
}

func TestBalanceLaw(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)

	a := mustAccount(t, l, "Carteira", 100_00)
	income := mustCategory(t, l, "Salário", core.CategoryIncome)
	expense := mustCategory(t, l, "Alimentação", core.CategoryExpense)

	mustRecord(t, l, RecordParams{Kind: core.KindIncome, Amount: core.Money{Cents: 2500_00}, SourceAccountID: a.ID, CategoryID: &income.ID})
	mustRecord(t, l, RecordParams{Kind: core.KindExpense, Amount: core.Money{Cents: 300_00}, SourceAccountID: a.ID, CategoryID: &expense.ID})

	balance, err := l.Balance(ctx, a.ID)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance.Cents != 2300_00 {
		t.Fatalf("balance = %d, want %d", balance.Cents, 2300_00)
	}
}

func TestTransferLaw(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)

	a := mustAccount(t, l, "A", 100_00)
	b := mustAccount(t, l, "B", 0)

	mustRecord(t, l, RecordParams{Kind: core.KindTransfer, Amount: core.Money{Cents: 200_00}, SourceAccountID: a.ID, DestinationAccountID: &b.ID})

	balanceA, err := l.Balance(ctx, a.ID)
	if err != nil {
		t.Fatalf("Balance A: %v", err)
	}
	if balanceA.Cents != -100_00 {
		t.Fatalf("balance A = %d, want %d", balanceA.Cents, -100_00)
	}
	balanceB, err := l.Balance(ctx, b.ID)
	if err != nil {
		t.Fatalf("Balance B: %v", err)
	}
	if balanceB.Cents != 200_00 {
		t.Fatalf("balance B = %d, want %d", balanceB.Cents, 200_00)
	}
}

func TestBalanceUnknownAccount(t *testing.T) {
	l := testLedger(t)
	if _, err := l.Balance(context.Background(), 42); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("got %v, want ErrAccountNotFound", err)
	}
}

func TestListTransactionsMonthFilter(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)

	a := mustAccount(t, l, "Carteira", 0)
	b := mustAccount(t, l, "Banco", 0)
	income := mustCategory(t, l, "Salário", core.CategoryIncome)

	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 12, 0, 0, 0, time.Local)
	}

	inMonth := mustRecord(t, l, RecordParams{Kind: core.KindIncome, Amount: core.Money{Cents: 100}, Date: date(2025, 3, 5), SourceAccountID: a.ID, CategoryID: &income.ID})
	lastDay := mustRecord(t, l, RecordParams{Kind: core.KindIncome, Amount: core.Money{Cents: 200}, Date: date(2025, 3, 31), SourceAccountID: a.ID, CategoryID: &income.ID})
	incoming := mustRecord(t, l, RecordParams{Kind: core.KindTransfer, Amount: core.Money{Cents: 300}, Date: date(2025, 3, 10), SourceAccountID: b.ID, DestinationAccountID: &a.ID})
	// Outside the month or not touching the account:
	mustRecord(t, l, RecordParams{Kind: core.KindIncome, Amount: core.Money{Cents: 400}, Date: date(2025, 2, 28), SourceAccountID: a.ID, CategoryID: &income.ID})
	mustRecord(t, l, RecordParams{Kind: core.KindIncome, Amount: core.Money{Cents: 500}, Date: date(2025, 4, 1), SourceAccountID: a.ID, CategoryID: &income.ID})
	mustRecord(t, l, RecordParams{Kind: core.KindIncome, Amount: core.Money{Cents: 600}, Date: date(2025, 3, 15), SourceAccountID: b.ID, CategoryID: &income.ID})

	month := &core.MonthRef{Year: 2025, Month: 3}
	got, err := l.ListTransactions(ctx, a.ID, month)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	wantIDs := []int64{inMonth.ID, incoming.ID, lastDay.ID} // date order
	if len(got) != len(wantIDs) {
		t.Fatalf("got %d transactions, want %d: %+v", len(got), len(wantIDs), got)
	}
	for i, want := range wantIDs {
		if got[i].ID != want {
			t.Errorf("position %d: got id %d, want %d", i, got[i].ID, want)
		}
	}

	// Unfiltered list includes everything touching the account.
	all, err := l.ListTransactions(ctx, a.ID, nil)
	if err != nil {
		t.Fatalf("ListTransactions all: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("got %d transactions, want 5", len(all))
	}
}

func TestMonthSummary(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)

	a := mustAccount(t, l, "Carteira", 0)
	b := mustAccount(t, l, "Banco", 0)
	income := mustCategory(t, l, "Salário", core.CategoryIncome)
	food := mustCategory(t, l, "Alimentação", core.CategoryExpense)
	fun := mustCategory(t, l, "Lazer", core.CategoryExpense)

	date := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	mustRecord(t, l, RecordParams{Kind: core.KindIncome, Amount: core.Money{Cents: 5000_00}, Date: date, SourceAccountID: a.ID, CategoryID: &income.ID})
	mustRecord(t, l, RecordParams{Kind: core.KindExpense, Amount: core.Money{Cents: 800_00}, Date: date, SourceAccountID: a.ID, CategoryID: &food.ID})
	mustRecord(t, l, RecordParams{Kind: core.KindExpense, Amount: core.Money{Cents: 200_00}, Date: date, SourceAccountID: a.ID, CategoryID: &fun.ID})
	// Transfers must not show up in the totals.
	mustRecord(t, l, RecordParams{Kind: core.KindTransfer, Amount: core.Money{Cents: 1000_00}, Date: date, SourceAccountID: a.ID, DestinationAccountID: &b.ID})
	// Other month.
	mustRecord(t, l, RecordParams{Kind: core.KindExpense, Amount: core.Money{Cents: 999_00}, Date: date.AddDate(0, 1, 0), SourceAccountID: a.ID, CategoryID: &food.ID})

	summary, err := l.MonthSummary(ctx, core.MonthRef{Year: 2025, Month: 3})
	if err != nil {
		t.Fatalf("MonthSummary: %v", err)
	}
	if summary.Income.Cents != 5000_00 {
		t.Errorf("income = %d, want %d", summary.Income.Cents, 5000_00)
	}
	if summary.Expenses.Cents != 1000_00 {
		t.Errorf("expenses = %d, want %d", summary.Expenses.Cents, 1000_00)
	}
	if summary.Net.Cents != 4000_00 {
		t.Errorf("net = %d, want %d", summary.Net.Cents, 4000_00)
	}
	if len(summary.ByCategory) != 2 {
		t.Fatalf("got %d category rows, want 2: %+v", len(summary.ByCategory), summary.ByCategory)
	}
	// Largest first.
	if summary.ByCategory[0].Name != "Alimentação" || summary.ByCategory[0].Amount.Cents != 800_00 {
		t.Errorf("top category = %+v", summary.ByCategory[0])
	}
}

func TestSeedDefaults(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)

	if err := l.SeedDefaults(ctx); err != nil {
		t.Fatalf("SeedDefaults: %v", err)
	}
	accounts, _ := l.ListAccounts(ctx)
	categories, _ := l.ListCategories(ctx, nil)
	if len(accounts) != 1 || accounts[0].Name != "Carteira" {
		t.Fatalf("seeded accounts: %+v", accounts)
	}
	if len(categories) != 4 {
		t.Fatalf("seeded %d categories, want 4", len(categories))
	}

	// Second run must not duplicate anything.
	if err := l.SeedDefaults(ctx); err != nil {
		t.Fatalf("second SeedDefaults: %v", err)
	}
	accounts, _ = l.ListAccounts(ctx)
	categories, _ = l.ListCategories(ctx, nil)
	if len(accounts) != 1 || len(categories) != 4 {
		t.Fatalf("seed not idempotent: %d accounts, %d categories", len(accounts), len(categories))
	}
}

func TestMirrorBookkeeping(t *testing.T) {
	ctx := context.Background()
	l := testLedger(t)

	a := mustAccount(t, l, "Carteira", 0)
	income := mustCategory(t, l, "Salário", core.CategoryIncome)
	tx1 := mustRecord(t, l, RecordParams{Kind: core.KindIncome, Amount: core.Money{Cents: 100}, SourceAccountID: a.ID, CategoryID: &income.ID})
	tx2 := mustRecord(t, l, RecordParams{Kind: core.KindIncome, Amount: core.Money{Cents: 200}, SourceAccountID: a.ID, CategoryID: &income.ID})

	ids, err := l.ListUnmirrored(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnmirrored: %v", err)
	}
	if len(ids) != 2 || ids[0] != tx1.ID || ids[1] != tx2.ID {
		t.Fatalf("unmirrored = %v", ids)
	}

	if err := l.MarkMirrored(ctx, tx1.ID); err != nil {
		t.Fatalf("MarkMirrored: %v", err)
	}
	ids, err = l.ListUnmirrored(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnmirrored: %v", err)
	}
	if len(ids) != 1 || ids[0] != tx2.ID {
		t.Fatalf("unmirrored after mark = %v", ids)
	}
}

func mustAccount(t *testing.T, l *Ledger, name string, openingCents int64) core.Account {
	t.Helper()
	a, err := l.CreateAccount(context.Background(), name, core.Money{Cents: openingCents})
	if err != nil {
		t.Fatalf("CreateAccount(%q): %v", name, err)
	}
	return a
}

func mustCategory(t *testing.T, l *Ledger, name string, kind core.CategoryKind) core.Category {
	t.Helper()
	c, err := l.CreateCategory(context.Background(), name, kind)
	if err != nil {
		t.Fatalf("CreateCategory(%q): %v", name, err)
	}
	return c
}

func mustRecord(t *testing.T, l *Ledger, p RecordParams) core.Transaction {
	t.Helper()
	tx, err := l.RecordTransaction(context.Background(), p)
	if err != nil {
		t.Fatalf("RecordTransaction(%+v): %v", p, err)
	}
	return tx
}
