package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"financas/internal/core"
)

func (l *Ledger) CreateAccount(ctx context.Context, name string, opening core.Money) (core.Account, error) {
	account := core.Account{Name: strings.TrimSpace(name), OpeningBalance: opening}
	if err := account.Validate(); err != nil {
		return core.Account{}, err
	}

	res, err := l.db.ExecContext(ctx,
		"INSERT INTO accounts (name, opening_balance) VALUES (?, ?)",
		account.Name, account.OpeningBalance.Cents,
	)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account id: %w", err)
	}
	account.ID = id

	slog.InfoContext(ctx, "Account created",
		"id", account.ID,
		"name", account.Name,
		"opening_balance_cents", account.OpeningBalance.Cents)

	return account, nil
}

// ListAccounts returns a snapshot of all accounts ordered by name.
func (l *Ledger) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := l.db.QueryContext(ctx,
		"SELECT id, name, opening_balance FROM accounts ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.OpeningBalance.Cents); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// GetAccount returns a single account or core.ErrAccountNotFound.
func (l *Ledger) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	var a core.Account
	err := l.db.QueryRowContext(ctx,
		"SELECT id, name, opening_balance FROM accounts WHERE id = ?", id).
		Scan(&a.ID, &a.Name, &a.OpeningBalance.Cents)
	if err != nil {
		if isNoRows(err) {
			return core.Account{}, core.ErrAccountNotFound
		}
		return core.Account{}, fmt.Errorf("query account %d: %w", id, err)
	}
	return a, nil
}
