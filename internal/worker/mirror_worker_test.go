package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"financas/internal/core"
	"financas/internal/mirror/memory"
	"financas/internal/storage"
)

func testSetup(t *testing.T) (*storage.Ledger, *memory.Store, *MirrorWorker) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "financas-test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	appender := memory.New()
	w := NewMirrorWorker(store, appender, nil, 10, time.Minute)
	return store, appender, w
}

func TestMirrorTransaction(t *testing.T) {
	ctx := context.Background()
	store, appender, w := testSetup(t)

	account, err := store.CreateAccount(ctx, "Carteira", core.Money{})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	category, err := store.CreateCategory(ctx, "Salário", core.CategoryIncome)
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	tx, err := store.RecordTransaction(ctx, storage.RecordParams{
		Kind:            core.KindIncome,
		Amount:          core.Money{Cents: 2500_00},
		Date:            time.Date(2025, 3, 5, 10, 0, 0, 0, time.Local),
		SourceAccountID: account.ID,
		CategoryID:      &category.ID,
		Description:     "março",
	})
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}

	if err := w.MirrorTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("MirrorTransaction: %v", err)
	}

	rows := appender.Rows()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.ID != tx.ID || row.Date != "2025-03-05" || row.Account != "Carteira" ||
		row.Category != "Salário" || row.Description != "março" {
		t.Fatalf("row = %+v", row)
	}

	// Redelivery must not duplicate the row.
	if err := w.MirrorTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("second MirrorTransaction: %v", err)
	}
	if len(appender.Rows()) != 1 {
		t.Fatal("redelivered message appended a duplicate row")
	}

	ids, err := store.ListUnmirrored(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnmirrored: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("unmirrored after mirror = %v", ids)
	}
}

func TestMirrorTransactionMissingRow(t *testing.T) {
	ctx := context.Background()
	_, appender, w := testSetup(t)

	// A vanished transaction is dropped, not retried forever.
	if err := w.MirrorTransaction(ctx, 999); err != nil {
		t.Fatalf("MirrorTransaction: %v", err)
	}
	if len(appender.Rows()) != 0 {
		t.Fatal("appended a row for a missing transaction")
	}
}

func TestMirrorPending(t *testing.T) {
	ctx := context.Background()
	store, appender, w := testSetup(t)

	a, _ := store.CreateAccount(ctx, "A", core.Money{})
	b, _ := store.CreateAccount(ctx, "B", core.Money{})
	category, _ := store.CreateCategory(ctx, "Lazer", core.CategoryExpense)

	if _, err := store.RecordTransaction(ctx, storage.RecordParams{
		Kind: core.KindExpense, Amount: core.Money{Cents: 100}, SourceAccountID: a.ID, CategoryID: &category.ID,
	}); err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	if _, err := store.RecordTransaction(ctx, storage.RecordParams{
		Kind: core.KindTransfer, Amount: core.Money{Cents: 200}, SourceAccountID: a.ID, DestinationAccountID: &b.ID,
	}); err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}

	if err := w.MirrorPending(ctx); err != nil {
		t.Fatalf("MirrorPending: %v", err)
	}

	rows := appender.Rows()
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[1].Destination != "B" {
		t.Fatalf("transfer row = %+v", rows[1])
	}

	ids, err := store.ListUnmirrored(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnmirrored: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("unmirrored after pending pass = %v", ids)
	}
}
